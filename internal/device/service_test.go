package device

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"spverifier/internal/storage"
	dErrors "spverifier/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *storage.Store
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	dir := s.T().TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = storage.New(filepath.Join(dir, "storage.json"), filepath.Join(dir, "uploads"), logger)
	s.Require().NoError(s.store.Initialise(s.ctx, storage.Data{URL: "http://localhost:3000"}))
	s.service = NewService(s.store, WithLogger(logger), WithHashCost(bcrypt.MinCost))
}

func (s *ServiceSuite) TestAuthenticateWithoutDevices() {
	_, err := s.service.Authenticate(s.ctx, "anything")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal("No devices registered", err.Error())
}

func (s *ServiceSuite) TestRegisterThenAuthenticate() {
	password, err := s.service.Register(s.ctx, "phone-1")
	s.Require().NoError(err)
	s.Len(password, PasswordLength)
	for _, c := range password {
		s.True(strings.ContainsRune(passwordChars, c), "unexpected char %q", c)
	}

	data, err := s.store.Data()
	s.Require().NoError(err)
	s.NotEqual(password, data.Hash["phone-1"])

	id, err := s.service.Authenticate(s.ctx, password)
	s.Require().NoError(err)
	s.Equal("phone-1", id)
}

func (s *ServiceSuite) TestWrongPassword() {
	_, err := s.service.Register(s.ctx, "phone-1")
	s.Require().NoError(err)

	_, err = s.service.Authenticate(s.ctx, "not-the-password")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.Authenticate(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestReRegisterRotatesPassword() {
	first, err := s.service.Register(s.ctx, "phone-1")
	s.Require().NoError(err)
	second, err := s.service.Register(s.ctx, "phone-1")
	s.Require().NoError(err)

	_, err = s.service.Authenticate(s.ctx, first)
	if first != second {
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
	id, err := s.service.Authenticate(s.ctx, second)
	s.Require().NoError(err)
	s.Equal("phone-1", id)
}

func (s *ServiceSuite) TestRegisterRequiresID() {
	_, err := s.service.Register(s.ctx, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestDevicesSorted() {
	for _, id := range []string{"tablet", "phone", "kiosk"} {
		_, err := s.service.Register(s.ctx, id)
		s.Require().NoError(err)
	}
	ids, err := s.service.Devices(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"kiosk", "phone", "tablet"}, ids)
}

func (s *ServiceSuite) TestDeauthorize() {
	password, err := s.service.Register(s.ctx, "phone-1")
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, "phone-2")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Deauthorize(s.ctx, "phone-1"))

	_, err = s.service.Authenticate(s.ctx, password)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = s.service.Deauthorize(s.ctx, "phone-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal("Device not found", err.Error())
}

func (s *ServiceSuite) TestUninitialisedStorage() {
	dir := s.T().TempDir()
	empty := storage.New(filepath.Join(dir, "storage.json"), filepath.Join(dir, "uploads"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewService(empty, WithHashCost(bcrypt.MinCost))

	_, err := svc.Register(s.ctx, "phone")
	s.True(dErrors.HasCode(err, dErrors.CodeNotInitialized))
	_, err = svc.Authenticate(s.ctx, "x")
	s.True(dErrors.HasCode(err, dErrors.CodeNotInitialized))
}
