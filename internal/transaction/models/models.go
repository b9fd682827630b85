// Package models holds the verification transaction state machine and the
// OpenID4VP wire shapes it produces.
package models

import (
	"crypto/subtle"
	"fmt"
	"time"

	pdmodels "spverifier/internal/presentation/models"
	"spverifier/internal/verification"
	"spverifier/pkg/platform/sentinel"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusRequested Status = "requested"
	StatusResponded Status = "responded"
)

// Transaction is one verification attempt. TransactionID is never shown to
// the wallet; RequestID travels as state; Endpoint is the callback path.
type Transaction struct {
	TransactionID string
	RequestID     string
	Endpoint      string
	ResponseURI   string
	Nonce         string
	Status        Status
	ResponseCode  string
	Presented     []verification.PresentedCredential
	CreatedAt     time.Time
	RespondedAt   time.Time
}

// NewTransaction creates a transaction in the created state.
func NewTransaction(transactionID, requestID, endpoint, responseURI, nonce string, now time.Time) *Transaction {
	return &Transaction{
		TransactionID: transactionID,
		RequestID:     requestID,
		Endpoint:      endpoint,
		ResponseURI:   responseURI,
		Nonce:         nonce,
		Status:        StatusCreated,
		CreatedAt:     now,
	}
}

// MarkRequested records that the wallet fetched the authorization request.
// Fetching again, or after a response, leaves the status unchanged.
func (t *Transaction) MarkRequested() {
	if t.Status == StatusCreated {
		t.Status = StatusRequested
	}
}

// CanRespond reports whether a response carrying state may be accepted.
func (t *Transaction) CanRespond(state string) error {
	if subtle.ConstantTimeCompare([]byte(state), []byte(t.RequestID)) != 1 {
		return fmt.Errorf("state does not match request id: %w", sentinel.ErrInvalidState)
	}
	if t.Status == StatusResponded {
		return fmt.Errorf("transaction already responded: %w", sentinel.ErrAlreadyUsed)
	}
	return nil
}

// MarkResponded stores the verified disclosures and the code that redeems them.
func (t *Transaction) MarkResponded(state, code string, presented []verification.PresentedCredential, now time.Time) error {
	if err := t.CanRespond(state); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("empty response code: %w", sentinel.ErrInvalidState)
	}
	t.Status = StatusResponded
	t.ResponseCode = code
	t.Presented = presented
	t.RespondedAt = now
	return nil
}

// CheckCode verifies a redemption attempt. An unresponded transaction never matches.
func (t *Transaction) CheckCode(code string) error {
	if t.Status != StatusResponded || t.ResponseCode == "" {
		return fmt.Errorf("transaction has no response: %w", sentinel.ErrInvalidState)
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(t.ResponseCode)) != 1 {
		return fmt.Errorf("response code mismatch: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// Clone returns a copy whose disclosure list is detached from t.
func (t *Transaction) Clone() *Transaction {
	out := *t
	if t.Presented != nil {
		out.Presented = append([]verification.PresentedCredential(nil), t.Presented...)
	}
	return &out
}

// Created is returned to the relying party by new(). It carries the
// transaction id, so it must never reach the wallet.
type Created struct {
	ResponseURI   string `json:"response_uri"`
	TransactionID string `json:"transaction_id"`
	RequestID     string `json:"request_id"`
	ClientID      string `json:"client_id"`
}

// AuthorizationRequest is served to the wallet at the callback endpoint.
type AuthorizationRequest struct {
	ClientID               string               `json:"client_id"`
	ClientIDScheme         string               `json:"client_id_scheme"`
	RedirectURI            string               `json:"redirect_uri"`
	ResponseType           string               `json:"response_type"`
	ResponseMode           string               `json:"response_mode"`
	Nonce                  string               `json:"nonce"`
	State                  string               `json:"state"`
	PresentationDefinition *pdmodels.Definition `json:"presentation_definition"`
	ClientMetadata         ClientMetadata       `json:"client_metadata"`
}

type ClientMetadata struct {
	VPFormats  VPFormats `json:"vp_formats"`
	ClientName string    `json:"client_name"`
	LogoURI    string    `json:"logo_uri"`
	TOSURI     string    `json:"tos_uri"`
	PolicyURI  string    `json:"policy_uri"`
}

type VPFormats struct {
	LDPVP ProofTypes `json:"ldp_vp"`
}

type ProofTypes struct {
	ProofType []string `json:"proof_type"`
}

// Redirect is returned to the wallet after an accepted response.
type Redirect struct {
	RedirectURI string `json:"redirect_uri"`
}

const (
	ClientIDSchemeRedirectURI = "redirect_uri"
	ResponseTypeVPToken       = "vp_token"
	ResponseModeDirectPost    = "direct_post"
	ResponseCodeRedirect      = "openid4vp://response_code="
)
