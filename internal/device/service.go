// Package device manages the admin devices allowed to drive the verifier.
// Each device holds a generated password; only its bcrypt hash is stored.
package device

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"spverifier/internal/audit"
	"spverifier/internal/storage"
	dErrors "spverifier/pkg/domain-errors"
)

const (
	PasswordLength = 12
	passwordChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+"
)

type Store interface {
	Data() (storage.Data, error)
	UpdateHash(ctx context.Context, deviceID, hash string) error
	RemoveHash(ctx context.Context, deviceID string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

type Service struct {
	store   Store
	logger  *slog.Logger
	auditor AuditPublisher
	cost    int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default(), cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate returns the device whose password matches.
func (s *Service) Authenticate(ctx context.Context, password string) (string, error) {
	data, err := s.store.Data()
	if err != nil {
		return "", err
	}
	if len(data.Hash) == 0 {
		return "", dErrors.New(dErrors.CodeNotFound, "No devices registered")
	}
	if password == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "Invalid password")
	}

	for _, id := range sortedIDs(data.Hash) {
		err := bcrypt.CompareHashAndPassword([]byte(data.Hash[id]), []byte(password))
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.WarnContext(ctx, "unreadable device hash", "device_id", id, "error", err)
		}
	}
	return "", dErrors.New(dErrors.CodeUnauthorized, "Invalid password")
}

// Register issues a fresh password for deviceID, replacing any previous one.
// The plaintext is returned once and never stored.
func (s *Service) Register(ctx context.Context, deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "Device ID is required")
	}
	password, err := generatePassword()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.store.UpdateHash(ctx, deviceID, string(hash)); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "device registered", "device_id", deviceID)
	s.emit(ctx, audit.Event{Action: audit.ActionDeviceRegistered, DeviceID: deviceID, Outcome: audit.OutcomeSuccess})
	return password, nil
}

// Devices lists registered device ids in order.
func (s *Service) Devices(ctx context.Context) ([]string, error) {
	data, err := s.store.Data()
	if err != nil {
		return nil, err
	}
	return sortedIDs(data.Hash), nil
}

func (s *Service) Deauthorize(ctx context.Context, deviceID string) error {
	data, err := s.store.Data()
	if err != nil {
		return err
	}
	if _, ok := data.Hash[deviceID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "Device not found")
	}
	if err := s.store.RemoveHash(ctx, deviceID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "device deauthorized", "device_id", deviceID)
	s.emit(ctx, audit.Event{Action: audit.ActionDeviceDeauthorized, DeviceID: deviceID, Outcome: audit.OutcomeSuccess})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.DebugContext(ctx, "audit event dropped", "action", event.Action, "error", err)
	}
}

func generatePassword() (string, error) {
	limit := big.NewInt(int64(len(passwordChars)))
	buf := make([]byte, PasswordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("could not read random: %w", err)
		}
		buf[i] = passwordChars[n.Int64()]
	}
	return string(buf), nil
}

func sortedIDs(hashes map[string]string) []string {
	ids := make([]string, 0, len(hashes))
	for id := range hashes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
