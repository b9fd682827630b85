// Package models holds the Presentation Exchange shapes shared by the
// definition builder, storage and submission verification.
package models

const (
	// ProofTypeBBS is the only signature suite the verifier accepts.
	ProofTypeBBS = "BbsBlsSignature2020"
	// FormatLDPVC is the credential format declared in definitions.
	FormatLDPVC = "ldp_vc"
	// FormatLDPVP is the envelope format wallets must submit.
	FormatLDPVP = "ldp_vp"

	FilterTypeString = "string"

	IssuerPath = "$.issuer.id"
	SchemaPath = "$.credentialSchema"
)

// Contexts is the fixed JSON-LD context list of every generated definition.
func Contexts() []string {
	return []string{
		"https://www.w3.org/2018/credentials/v1",
		"https://www.w3.org/2018/credentials/examples/v1",
		"https://w3id.org/security/bbs/v1",
		"https://schema.org",
	}
}

// Definition is a Presentation Definition.
type Definition struct {
	Context          []string          `json:"@context"`
	ID               string            `json:"id"`
	Format           Format            `json:"format"`
	InputDescriptors []InputDescriptor `json:"input_descriptors"`
}

// Format maps a credential format to the proof types accepted for it.
type Format map[string]ProofFormat

type ProofFormat struct {
	ProofType []string `json:"proof_type"`
}

type InputDescriptor struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Purpose     string      `json:"purpose"`
	Constraints Constraints `json:"constraints"`
}

type Constraints struct {
	Fields []Field `json:"fields"`
}

// Field is one constraint. Only Path[0] is evaluated.
type Field struct {
	Path   []string `json:"path"`
	Filter *Filter  `json:"filter,omitempty"`
}

type Filter struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
}

// Descriptor returns the input descriptor with the given id.
func (d *Definition) Descriptor(id string) (*InputDescriptor, bool) {
	for i := range d.InputDescriptors {
		if d.InputDescriptors[i].ID == id {
			return &d.InputDescriptors[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers cannot mutate stored definitions.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := &Definition{
		Context: append([]string(nil), d.Context...),
		ID:      d.ID,
	}
	if d.Format != nil {
		out.Format = make(Format, len(d.Format))
		for k, v := range d.Format {
			out.Format[k] = ProofFormat{ProofType: append([]string(nil), v.ProofType...)}
		}
	}
	if d.InputDescriptors != nil {
		out.InputDescriptors = make([]InputDescriptor, len(d.InputDescriptors))
	}
	for i, desc := range d.InputDescriptors {
		fields := make([]Field, len(desc.Constraints.Fields))
		for j, f := range desc.Constraints.Fields {
			fields[j] = Field{Path: append([]string(nil), f.Path...)}
			if f.Filter != nil {
				filter := *f.Filter
				fields[j].Filter = &filter
			}
		}
		out.InputDescriptors[i] = InputDescriptor{
			ID:          desc.ID,
			Name:        desc.Name,
			Purpose:     desc.Purpose,
			Constraints: Constraints{Fields: fields},
		}
	}
	return out
}

// CredentialRequest is the admin-facing description of one wanted credential.
type CredentialRequest struct {
	Name                      string         `json:"name"`
	Purpose                   string         `json:"purpose"`
	ID                        string         `json:"id"`
	Fields                    []FieldRequest `json:"fields"`
	IssuerFilter              string         `json:"issuerFilter"`
	CredentialFilter          string         `json:"credentialFilter"`
	SelectedIssuers           []string       `json:"selectedIssuers"`
	SelectedCredentialOptions []string       `json:"selectedCredentialOptions"`
}

// FieldRequest is a flat JSONPath plus an optional regular expression.
type FieldRequest struct {
	Path   string `json:"path"`
	Filter string `json:"filter"`
}
