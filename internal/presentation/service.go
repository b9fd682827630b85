package presentation

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"spverifier/internal/presentation/models"
	"spverifier/internal/storage"
	dErrors "spverifier/pkg/domain-errors"
)

// Store is the slice of storage the service needs.
type Store interface {
	Data() (storage.Data, error)
	SetPresentationDefinition(ctx context.Context, def *models.Definition, requested string) error
}

// Service owns the single active Presentation Definition. Every Generate
// replaces it; there is no versioning.
type Service struct {
	store  Store
	logger *slog.Logger
	newID  func() string
}

type Option func(*Service)

// WithIDGenerator overrides definition id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds a definition with a fresh id and persists it, together
// with the raw requests, as the current definition.
func (s *Service) Generate(ctx context.Context, credentials []models.CredentialRequest) (*models.Definition, error) {
	if credentials == nil {
		credentials = []models.CredentialRequest{}
	}
	raw, err := json.Marshal(credentials)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential requests")
	}

	def := Build(s.newID(), credentials)
	if err := s.store.SetPresentationDefinition(ctx, def, string(raw)); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "presentation definition generated",
		"definition_id", def.ID,
		"descriptors", len(def.InputDescriptors),
	)
	return def, nil
}

// Current returns the active definition.
func (s *Service) Current() (*models.Definition, error) {
	data, err := s.store.Data()
	if err != nil {
		return nil, err
	}
	if data.PresentationDefinition == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "presentation definition not found")
	}
	return data.PresentationDefinition, nil
}

// Requested returns the credential requests the active definition was built from.
func (s *Service) Requested() ([]models.CredentialRequest, error) {
	data, err := s.store.Data()
	if err != nil {
		return nil, err
	}
	if data.MobilePresentationDefinition == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "presentation definition not found")
	}
	var creds []models.CredentialRequest
	if err := json.Unmarshal([]byte(data.MobilePresentationDefinition), &creds); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDataIntegrity, "stored credential requests are corrupt")
	}
	return creds, nil
}
