// Package verification checks wallet presentations: linked-data proofs and
// expiry through a pluggable signature capability, and the presentation
// submission against the active Presentation Definition.
package verification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	// SuiteBBS is the only signature suite the verifier accepts.
	SuiteBBS = "BbsBlsSignature2020"
	// FormatLDPVP is the only envelope format a submission may declare.
	FormatLDPVP = "ldp_vp"
	// PurposeAssertion is the proof purpose handed to the signature capability.
	PurposeAssertion = "assertionMethod"
)

// Document is a presentation or credential as received from the wallet.
type Document map[string]any

// Proof is the linked-data proof attached to a Document.
type Proof struct {
	Type               string `mapstructure:"type" json:"type"`
	Created            string `mapstructure:"created" json:"created,omitempty"`
	ProofPurpose       string `mapstructure:"proofPurpose" json:"proofPurpose,omitempty"`
	VerificationMethod string `mapstructure:"verificationMethod" json:"verificationMethod,omitempty"`
	ProofValue         string `mapstructure:"proofValue" json:"proofValue,omitempty"`
	Challenge          string `mapstructure:"challenge" json:"challenge,omitempty"`
	Nonce              string `mapstructure:"nonce" json:"nonce,omitempty"`
}

// Proof decodes the document's proof. When several proofs are attached the
// first one is returned. A document without a proof yields a zero Proof.
func (d Document) Proof() (Proof, error) {
	var p Proof
	raw := d["proof"]
	if list, ok := raw.([]any); ok {
		if len(list) == 0 {
			return p, nil
		}
		raw = list[0]
	}
	if raw == nil {
		return p, nil
	}
	if err := mapstructure.Decode(raw, &p); err != nil {
		return Proof{}, err
	}
	return p, nil
}

// Credentials returns the embedded verifiable credentials that are JSON objects.
func (d Document) Credentials() []Document {
	switch v := d["verifiableCredential"].(type) {
	case map[string]any:
		return []Document{v}
	case []any:
		out := make([]Document, 0, len(v))
		for _, c := range v {
			if m, ok := c.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// IssuerID returns the issuer of a credential, given either as a string or
// as an object with an id.
func (d Document) IssuerID() string {
	return issuerID(d["issuer"])
}

func issuerID(issuer any) string {
	switch v := issuer.(type) {
	case string:
		return v
	case map[string]any:
		id, _ := v["id"].(string)
		return id
	}
	return ""
}

// ExpirationDate returns the credential's expiry. ok is false when the
// credential does not declare one.
func (d Document) ExpirationDate() (t time.Time, ok bool, err error) {
	raw, present := d["expirationDate"]
	if !present || raw == nil {
		return time.Time{}, false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return time.Time{}, true, errors.New("expirationDate is not a string")
	}
	t, err = time.Parse(time.RFC3339, s)
	return t, true, err
}

// TransactionResponse is the wallet's direct_post body.
type TransactionResponse struct {
	VPToken                json.RawMessage        `json:"vp_token"`
	PresentationSubmission PresentationSubmission `json:"presentation_submission"`
	State                  string                 `json:"state"`
}

type PresentationSubmission struct {
	ID            string              `json:"id"`
	DefinitionID  string              `json:"definition_id"`
	DescriptorMap []DescriptorMapping `json:"descriptor_map"`
}

// DescriptorMapping ties one submitted credential to an input descriptor.
type DescriptorMapping struct {
	ID         string      `json:"id"`
	Format     string      `json:"format"`
	Path       string      `json:"path"`
	PathNested *NestedPath `json:"path_nested,omitempty"`
}

type NestedPath struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

// PresentedCredential is one disclosed field.
type PresentedCredential struct {
	Cred   string `json:"cred"`
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Issuer string `json:"issuer"`
}
