package verification

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"spverifier/internal/did"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/requestcontext"
)

// DocumentLoader dereferences contexts and verification methods during
// proof checking.
type DocumentLoader interface {
	Load(ctx context.Context, url string) (*did.RemoteDocument, error)
}

// ProofOptions are handed to the signature capability with every document.
type ProofOptions struct {
	Suite   string
	Purpose string
	Loader  DocumentLoader
}

// Result is the capability's verdict.
type Result struct {
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

// CredentialVerifier checks linked-data proofs. The verifier trusts its verdict.
type CredentialVerifier interface {
	Verify(ctx context.Context, doc Document, opts ProofOptions) (Result, error)
}

// Verifier performs the cryptographic and temporal checks on presentations
// and the credentials they carry.
type Verifier struct {
	signatures CredentialVerifier
	loader     DocumentLoader
	tracer     trace.Tracer
}

func NewVerifier(signatures CredentialVerifier, loader DocumentLoader) *Verifier {
	return &Verifier{
		signatures: signatures,
		loader:     loader,
		tracer:     otel.Tracer("spverifier/internal/verification"),
	}
}

// VerifyPresentation checks the proof of a presentation.
func (v *Verifier) VerifyPresentation(ctx context.Context, vp Document) error {
	ctx, span := v.tracer.Start(ctx, "verification.VerifyPresentation")
	defer span.End()

	if err := v.verifyProof(ctx, vp, "Verifiable Presentation"); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// VerifyCredential checks the proof of a credential and rejects it once its
// expirationDate has passed.
func (v *Verifier) VerifyCredential(ctx context.Context, vc Document) error {
	ctx, span := v.tracer.Start(ctx, "verification.VerifyCredential",
		trace.WithAttributes(attribute.String("issuer", vc.IssuerID())))
	defer span.End()

	if err := v.verifyProof(ctx, vc, "Verifiable Credential"); err != nil {
		recordError(span, err)
		return err
	}

	expires, ok, err := vc.ExpirationDate()
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeVerificationFailed, "Credential has an invalid expirationDate")
		recordError(span, err)
		return err
	}
	if ok && expires.Before(requestcontext.Now(ctx)) {
		err = dErrors.New(dErrors.CodeExpired, "Credential has expired")
		recordError(span, err)
		return err
	}
	return nil
}

// VerifyTokens verifies every presentation of a vp_token and every
// credential embedded in them, stopping at the first failure.
func (v *Verifier) VerifyTokens(ctx context.Context, vps []Document) error {
	for _, vp := range vps {
		if err := v.VerifyPresentation(ctx, vp); err != nil {
			return err
		}
		for _, vc := range vp.Credentials() {
			if err := v.VerifyCredential(ctx, vc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *Verifier) verifyProof(ctx context.Context, doc Document, kind string) error {
	proof, err := doc.Proof()
	if err != nil || proof.Type != SuiteBBS {
		return dErrors.New(dErrors.CodeInvalidProofType, "Invalid proof type")
	}

	start := time.Now()
	result, err := v.signatures.Verify(ctx, doc, ProofOptions{
		Suite:   SuiteBBS,
		Purpose: PurposeAssertion,
		Loader:  v.loader,
	})
	if err != nil {
		if _, coded := dErrors.As(err); coded {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "signature verification unavailable")
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("verify_ms", time.Since(start).Milliseconds()))

	if !result.Verified {
		return dErrors.New(dErrors.CodeVerificationFailed, fmt.Sprintf("%s is invalid %s", kind, result.Error))
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}
