// Package service runs OpenID4VP verification transactions. Identifiers are
// drawn independently from crypto/rand; the transaction id is only ever
// returned to the relying party that created it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"spverifier/internal/audit"
	"spverifier/internal/platform/metrics"
	pdmodels "spverifier/internal/presentation/models"
	"spverifier/internal/storage"
	"spverifier/internal/transaction/models"
	"spverifier/internal/transaction/store"
	"spverifier/internal/verification"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/platform/sentinel"
	"spverifier/pkg/requestcontext"
)

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByEndpoint(ctx context.Context, endpoint string) (*models.Transaction, error)
	FindByID(ctx context.Context, transactionID string) (*models.Transaction, error)
	Execute(ctx context.Context, endpoint string, mutate func(*models.Transaction) error) (*models.Transaction, error)
}

type ConfigStore interface {
	Data() (storage.Data, error)
}

type DefinitionSource interface {
	Current() (*pdmodels.Definition, error)
}

// TokenVerifier checks the proofs of every presentation and credential in a vp_token.
type TokenVerifier interface {
	VerifyTokens(ctx context.Context, vps []verification.Document) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs the verification transaction lifecycle: new, request,
// response, result.
type Service struct {
	transactions TransactionStore
	config       ConfigStore
	definitions  DefinitionSource
	signatures   TokenVerifier
	ids          IDGenerator
	logger       *slog.Logger
	auditor      AuditPublisher
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSignatureVerification turns on proof checking of wallet responses.
// Without it responses are checked structurally only.
func WithSignatureVerification(v TokenVerifier) Option {
	return func(s *Service) { s.signatures = v }
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Service) { s.ids = ids }
}

func New(transactions TransactionStore, config ConfigStore, definitions DefinitionSource, opts ...Option) *Service {
	s := &Service{
		transactions: transactions,
		config:       config,
		definitions:  definitions,
		ids:          RandomIDs{},
		logger:       slog.Default(),
		tracer:       otel.Tracer("spverifier/internal/transaction"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const createAttempts = 3

// New starts a transaction bound to nonce. The result carries the
// transaction id and must only go back to the relying party. Any nonce is
// accepted; the HTTP layer rejects blank ones.
func (s *Service) New(ctx context.Context, nonce string) (*models.Created, error) {
	data, err := s.config.Data()
	if err != nil {
		return nil, err
	}

	var tx *models.Transaction
	for attempt := 0; ; attempt++ {
		tx = s.newTransaction(ctx, data.URL, nonce)
		err = s.transactions.Create(ctx, tx)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrInvalidState) || attempt+1 == createAttempts {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create transaction")
		}
	}

	s.logger.InfoContext(ctx, "transaction created",
		"transaction_id", tx.TransactionID,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{Action: audit.ActionTransactionCreated, TransactionID: tx.TransactionID, Outcome: audit.OutcomeSuccess})
	if s.metrics != nil {
		s.metrics.IncrementTransactionsCreated()
	}

	return &models.Created{
		ResponseURI:   tx.ResponseURI,
		TransactionID: tx.TransactionID,
		RequestID:     tx.RequestID,
		ClientID:      "",
	}, nil
}

func (s *Service) newTransaction(ctx context.Context, baseURL, nonce string) *models.Transaction {
	transactionID := s.ids.TransactionID()
	requestID := s.ids.Token()
	for requestID == transactionID {
		requestID = s.ids.Token()
	}
	endpoint := s.ids.Token()
	for endpoint == transactionID || endpoint == requestID {
		endpoint = s.ids.Token()
	}
	return models.NewTransaction(transactionID, requestID, endpoint,
		baseURL+"/verify/"+endpoint, nonce, requestcontext.Now(ctx))
}

// Request builds the authorization request the wallet fetches from the
// transaction's callback endpoint.
//
// Storage and the definition are read first so a failed lookup leaves the
// transaction's status untouched.
func (s *Service) Request(ctx context.Context, endpoint string) (*models.AuthorizationRequest, error) {
	data, err := s.config.Data()
	if err != nil {
		return nil, err
	}
	def, err := s.definitions.Current()
	if err != nil {
		return nil, err
	}

	tx, err := s.transactions.Execute(ctx, endpoint, func(tx *models.Transaction) error {
		tx.MarkRequested()
		return nil
	})
	if err != nil {
		return nil, s.translateEndpointError(ctx, err)
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsServed()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionTransactionRequested, TransactionID: tx.TransactionID, Outcome: audit.OutcomeSuccess})

	return &models.AuthorizationRequest{
		ClientID:               tx.ResponseURI,
		ClientIDScheme:         models.ClientIDSchemeRedirectURI,
		RedirectURI:            tx.ResponseURI,
		ResponseType:           models.ResponseTypeVPToken,
		ResponseMode:           models.ResponseModeDirectPost,
		Nonce:                  tx.Nonce,
		State:                  tx.RequestID,
		PresentationDefinition: def,
		ClientMetadata: models.ClientMetadata{
			VPFormats: models.VPFormats{
				LDPVP: models.ProofTypes{ProofType: []string{verification.SuiteBBS}},
			},
			ClientName: data.Metadata.Name,
			LogoURI:    data.URL + "/metadata/logo",
			TOSURI:     data.URL + "/metadata/tos",
			PolicyURI:  data.URL + "/metadata/policy",
		},
	}, nil
}

// Response ingests the wallet's direct_post. On success the disclosures are
// stored and a fresh response code is returned inside the redirect; on any
// failure the transaction keeps no code.
func (s *Service) Response(ctx context.Context, endpoint string, resp *verification.TransactionResponse) (*models.Redirect, error) {
	ctx, span := s.tracer.Start(ctx, "transaction.Response",
		trace.WithAttributes(attribute.Bool("signature_verification", s.signatures != nil)))
	defer span.End()

	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveResponseVerification(start)
	}

	redirect, txID, err := s.response(ctx, endpoint, resp)
	if err != nil {
		code := dErrors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		if s.metrics != nil {
			s.metrics.IncrementResponsesRejected(string(code))
		}
		if txID != "" {
			s.emit(ctx, audit.Event{Action: audit.ActionTransactionRejected, TransactionID: txID, Outcome: audit.OutcomeFailure, Reason: string(code)})
		}
		if code != dErrors.CodeDataIntegrity && code != dErrors.CodeInternal {
			s.logger.WarnContext(ctx, "wallet response rejected", "code", code, "error", err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("transaction_id", txID))
	if s.metrics != nil {
		s.metrics.IncrementResponsesAccepted()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionTransactionResponded, TransactionID: txID, Outcome: audit.OutcomeSuccess})
	s.logger.InfoContext(ctx, "wallet response accepted", "transaction_id", txID)
	return redirect, nil
}

func (s *Service) response(ctx context.Context, endpoint string, resp *verification.TransactionResponse) (*models.Redirect, string, error) {
	tx, err := s.transactions.FindByEndpoint(ctx, endpoint)
	if err != nil {
		return nil, "", s.translateEndpointError(ctx, err)
	}
	if err := tx.CanRespond(resp.State); err != nil {
		return nil, tx.TransactionID, translateRespondError(err)
	}

	vps, err := verification.NormalizeVPToken(resp.VPToken)
	if err != nil {
		s.logger.ErrorContext(ctx, "vp_token could not be normalized",
			"transaction_id", tx.TransactionID,
			"error", err,
		)
		return nil, tx.TransactionID, err
	}

	if s.signatures != nil {
		if err := checkNonce(vps, tx.Nonce); err != nil {
			return nil, tx.TransactionID, err
		}
		if err := s.signatures.VerifyTokens(ctx, vps); err != nil {
			return nil, tx.TransactionID, err
		}
	}

	def, err := s.definitions.Current()
	if err != nil {
		return nil, tx.TransactionID, err
	}
	presented, err := verification.VerifySubmission(resp, vps, def)
	if err != nil {
		return nil, tx.TransactionID, err
	}

	code := s.ids.ResponseCode()
	now := requestcontext.Now(ctx)
	_, err = s.transactions.Execute(ctx, endpoint, func(tx *models.Transaction) error {
		return tx.MarkResponded(resp.State, code, presented, now)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, store.ErrIndexDivergence) {
			return nil, tx.TransactionID, s.translateEndpointError(ctx, err)
		}
		return nil, tx.TransactionID, translateRespondError(err)
	}
	return &models.Redirect{RedirectURI: models.ResponseCodeRedirect + code}, tx.TransactionID, nil
}

// checkNonce requires every presentation proof to carry the transaction nonce
// as its challenge.
func checkNonce(vps []verification.Document, nonce string) error {
	for _, vp := range vps {
		proof, err := vp.Proof()
		if err != nil || (proof.Challenge != nonce && proof.Nonce != nonce) {
			return dErrors.New(dErrors.CodeVerificationFailed, "Invalid or missing nonce")
		}
	}
	return nil
}

// Result redeems a response code for the disclosed fields. Redemption is
// repeatable with the same code.
func (s *Service) Result(ctx context.Context, transactionID, responseCode string) ([]verification.PresentedCredential, error) {
	tx, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			err = dErrors.New(dErrors.CodeNotFound, "Invalid or expired transaction ID")
		case errors.Is(err, store.ErrIndexDivergence):
			s.logger.ErrorContext(ctx, "transaction index diverged", "transaction_id", transactionID, "error", err)
			err = dErrors.Wrap(err, dErrors.CodeDataIntegrity, "Transaction data not found")
		default:
			err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction")
		}
		s.resultRejected(ctx, transactionID, err)
		return nil, err
	}

	if err := tx.CheckCode(responseCode); err != nil {
		err = dErrors.Wrap(err, dErrors.CodeIncorrectCode, "Incorrect Response Code")
		s.resultRejected(ctx, transactionID, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementResultsRedeemed()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionResultRedeemed, TransactionID: transactionID, Outcome: audit.OutcomeSuccess})

	if tx.Presented == nil {
		return []verification.PresentedCredential{}, nil
	}
	return tx.Presented, nil
}

func (s *Service) resultRejected(ctx context.Context, transactionID string, err error) {
	code := dErrors.CodeOf(err)
	if s.metrics != nil {
		s.metrics.IncrementResultsRejected(string(code))
	}
	if code == dErrors.CodeIncorrectCode {
		s.emit(ctx, audit.Event{Action: audit.ActionResultRejected, TransactionID: transactionID, Outcome: audit.OutcomeFailure, Reason: string(code)})
	}
}

func (s *Service) translateEndpointError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "Invalid or expired transaction endpoint")
	case errors.Is(err, store.ErrIndexDivergence):
		s.logger.ErrorContext(ctx, "transaction index diverged", "error", err)
		return dErrors.Wrap(err, dErrors.CodeDataIntegrity, "Transaction data not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transaction")
	}
}

func translateRespondError(err error) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "Transaction already responded")
	}
	return dErrors.Wrap(err, dErrors.CodeInvalidState, "Invalid state (request ID)")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.DebugContext(ctx, "audit event dropped", "action", event.Action, "error", err)
	}
}
