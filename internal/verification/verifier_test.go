package verification_test

//go:generate mockgen -source=verifier.go -destination=mocks/mocks.go -package=mocks CredentialVerifier,DocumentLoader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"spverifier/internal/verification"
	"spverifier/internal/verification/mocks"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/requestcontext"
)

type VerifierSuite struct {
	suite.Suite
	ctx        context.Context
	signatures *mocks.MockCredentialVerifier
	loader     *mocks.MockDocumentLoader
	verifier   *verification.Verifier
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.signatures = mocks.NewMockCredentialVerifier(ctrl)
	s.loader = mocks.NewMockDocumentLoader(ctrl)
	s.verifier = verification.NewVerifier(s.signatures, s.loader)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
}

func signed(extra map[string]any) verification.Document {
	doc := verification.Document{
		"issuer": map[string]any{"id": "did:web:issuer.example"},
		"proof": map[string]any{
			"type":               verification.SuiteBBS,
			"proofPurpose":       "assertionMethod",
			"verificationMethod": "did:web:issuer.example#key-1",
		},
	}
	for k, v := range extra {
		doc[k] = v
	}
	return doc
}

func (s *VerifierSuite) expectVerify(result verification.Result, err error) {
	s.signatures.EXPECT().
		Verify(gomock.Any(), gomock.Any(), verification.ProofOptions{
			Suite:   verification.SuiteBBS,
			Purpose: verification.PurposeAssertion,
			Loader:  s.loader,
		}).
		Return(result, err)
}

func (s *VerifierSuite) TestPresentationVerified() {
	s.expectVerify(verification.Result{Verified: true}, nil)
	s.NoError(s.verifier.VerifyPresentation(s.ctx, signed(nil)))
}

func (s *VerifierSuite) TestInvalidProofType() {
	for _, doc := range []verification.Document{
		{},
		{"proof": map[string]any{"type": "Ed25519Signature2020"}},
		{"proof": "not-an-object"},
	} {
		err := s.verifier.VerifyPresentation(s.ctx, doc)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProofType), "got %v", err)
		s.EqualError(err, "Invalid proof type")

		err = s.verifier.VerifyCredential(s.ctx, doc)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProofType), "got %v", err)
	}
}

func (s *VerifierSuite) TestUnverifiedCarriesReason() {
	s.expectVerify(verification.Result{Verified: false, Error: "Invalid signature"}, nil)

	err := s.verifier.VerifyPresentation(s.ctx, signed(nil))
	s.True(dErrors.HasCode(err, dErrors.CodeVerificationFailed))
	s.Contains(err.Error(), "Invalid signature")
}

func (s *VerifierSuite) TestCapabilityFailure() {
	s.expectVerify(verification.Result{}, errors.New("connection refused"))
	err := s.verifier.VerifyPresentation(s.ctx, signed(nil))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	s.expectVerify(verification.Result{}, dErrors.New(dErrors.CodeDIDResolution, "failed to resolve DID: did:web:x"))
	err = s.verifier.VerifyPresentation(s.ctx, signed(nil))
	s.True(dErrors.HasCode(err, dErrors.CodeDIDResolution))
}

func (s *VerifierSuite) TestCredentialExpiry() {
	s.Run("not yet expired", func() {
		s.expectVerify(verification.Result{Verified: true}, nil)
		s.NoError(s.verifier.VerifyCredential(s.ctx, signed(map[string]any{"expirationDate": "2030-01-01T00:00:00Z"})))
	})
	s.Run("no expiry", func() {
		s.expectVerify(verification.Result{Verified: true}, nil)
		s.NoError(s.verifier.VerifyCredential(s.ctx, signed(nil)))
	})
	s.Run("expired", func() {
		s.expectVerify(verification.Result{Verified: true}, nil)
		err := s.verifier.VerifyCredential(s.ctx, signed(map[string]any{"expirationDate": "2024-01-01T00:00:00Z"}))
		s.True(dErrors.HasCode(err, dErrors.CodeExpired))
		s.EqualError(err, "Credential has expired")
	})
	s.Run("unparsable", func() {
		s.expectVerify(verification.Result{Verified: true}, nil)
		err := s.verifier.VerifyCredential(s.ctx, signed(map[string]any{"expirationDate": "next tuesday"}))
		s.True(dErrors.HasCode(err, dErrors.CodeVerificationFailed))
	})
}

func (s *VerifierSuite) TestVerifyTokensChecksEmbeddedCredentials() {
	vp := signed(map[string]any{"verifiableCredential": []any{
		map[string]any(signed(map[string]any{"expirationDate": "2030-01-01T00:00:00Z"})),
		map[string]any(signed(map[string]any{"expirationDate": "2020-01-01T00:00:00Z"})),
	}})
	s.signatures.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(verification.Result{Verified: true}, nil).Times(3)

	err := s.verifier.VerifyTokens(s.ctx, []verification.Document{vp})
	s.True(dErrors.HasCode(err, dErrors.CodeExpired), "got %v", err)
}

func (s *VerifierSuite) TestVerifyTokensStopsAtFirstFailure() {
	s.expectVerify(verification.Result{Verified: false, Error: "bad"}, nil)
	err := s.verifier.VerifyTokens(s.ctx, []verification.Document{signed(nil), signed(nil)})
	s.True(dErrors.HasCode(err, dErrors.CodeVerificationFailed))
}
