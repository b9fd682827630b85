package httptransport

//go:generate mockgen -source=handlers_verify.go -destination=mocks/verify_mocks.go -package=mocks TransactionService
//go:generate mockgen -source=handlers_definition.go -destination=mocks/definition_mocks.go -package=mocks DefinitionService
//go:generate mockgen -source=handlers_metadata.go -destination=mocks/metadata_mocks.go -package=mocks MetadataStore
//go:generate mockgen -source=handlers_admin.go -destination=mocks/admin_mocks.go -package=mocks DeviceService,SetupStore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"spverifier/internal/platform/metrics"
	ratelimit "spverifier/internal/ratelimit/middleware"
	rlmodels "spverifier/internal/ratelimit/models"
	rlstore "spverifier/internal/ratelimit/store"
	pdmodels "spverifier/internal/presentation/models"
	"spverifier/internal/storage"
	"spverifier/internal/transaction/models"
	"spverifier/internal/transport/http/mocks"
	"spverifier/internal/verification"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/platform/middleware/admin"
	"spverifier/pkg/requestcontext"
	"spverifier/pkg/testutil"
)

const (
	devicePassword = "s3cret-pass!"
	adminToken     = "admin-token"
)

type stubDevices struct{}

func (stubDevices) Authenticate(_ context.Context, password string) (string, error) {
	if password != devicePassword {
		return "", dErrors.New(dErrors.CodeUnauthorized, "Invalid password")
	}
	return "phone-1", nil
}

type RouterSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	transactions *mocks.MockTransactionService
	definitions  *mocks.MockDefinitionService
	metadata     *mocks.MockMetadataStore
	devices      *mocks.MockDeviceService
	setup        *mocks.MockSetupStore
	router       http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.transactions = mocks.NewMockTransactionService(s.ctrl)
	s.definitions = mocks.NewMockDefinitionService(s.ctrl)
	s.metadata = mocks.NewMockMetadataStore(s.ctrl)
	s.devices = mocks.NewMockDeviceService(s.ctrl)
	s.setup = mocks.NewMockSetupStore(s.ctrl)
	s.router = s.newRouter(adminToken)
}

func (s *RouterSuite) newRouter(token string, opts ...func(*RouterConfig)) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	cfg := RouterConfig{
		Logger:     logger,
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		Devices:    stubDevices{},
		AdminToken: token,
		Verify:     NewVerifyHandler(s.transactions, logger),
		Definition: NewDefinitionHandler(s.definitions, logger),
		Metadata:   NewMetadataHandler(s.metadata, logger),
		Admin:      NewAdminHandler(s.devices, s.setup, logger),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewRouter(cfg)
}

func asDevice(r *http.Request) *http.Request {
	return testutil.WithBearer(r, devicePassword)
}

func asAdmin(r *http.Request) *http.Request {
	r.Header.Set(admin.TokenHeader, adminToken)
	return r
}

func (s *RouterSuite) TestHealthAndMetrics() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "verifier_http_request_duration_seconds")
}

func (s *RouterSuite) TestReadiness() {
	s.Run("no checks", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/ready"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "ok")
	})

	s.Run("failing dependency", func() {
		router := s.newRouter(adminToken, func(cfg *RouterConfig) {
			cfg.Checks = map[string]HealthCheck{
				"redis": func(context.Context) error { return errors.New("connection refused") },
			}
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/ready"))
		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
		body := testutil.DecodeResponse[readinessResponse](s.T(), rr)
		s.Equal("unavailable", body.Status)
		s.Equal(map[string]string{"redis": "unavailable"}, body.Checks)
	})
}

func (s *RouterSuite) TestNewTransaction() {
	s.Run("requires a device", func() {
		s.transactions.EXPECT().New(gomock.Any(), gomock.Any()).Times(0)
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", map[string]string{"nonce": "n"}))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("missing nonce", func() {
		s.transactions.EXPECT().New(gomock.Any(), gomock.Any()).Times(0)
		rr := testutil.DoRequest(s.router, asDevice(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", map[string]any{"nonce": 7})))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("wraps the response uri", func() {
		callback := "https://sp.example/verify/endpoint-1"
		s.transactions.EXPECT().New(gomock.Any(), "nonce-1").DoAndReturn(
			func(ctx context.Context, _ string) (*models.Created, error) {
				s.Equal("phone-1", requestcontext.DeviceID(ctx))
				s.NotEmpty(requestcontext.RequestID(ctx))
				return &models.Created{ResponseURI: callback, TransactionID: "tx-1", RequestID: "req-1"}, nil
			})

		rr := testutil.DoRequest(s.router, asDevice(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", map[string]string{"nonce": "nonce-1"})))
		testutil.AssertStatusOK(s.T(), rr)

		got := testutil.DecodeResponse[models.Created](s.T(), rr)
		s.Equal("tx-1", got.TransactionID)
		s.Equal("req-1", got.RequestID)
		s.True(strings.HasPrefix(got.ResponseURI, "openid4vp://"))
		q, err := url.ParseQuery(strings.TrimPrefix(got.ResponseURI, "openid4vp://"))
		s.Require().NoError(err)
		s.Equal(callback, q.Get("client_id"))
		s.Equal(callback, q.Get("response_uri"))
	})
}

func (s *RouterSuite) TestAuthorizationRequest() {
	s.Run("served without device auth", func() {
		s.transactions.EXPECT().Request(gomock.Any(), "endpoint-1").Return(&models.AuthorizationRequest{
			ClientID: "https://sp.example/verify/endpoint-1",
			State:    "req-1",
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/verify/endpoint-1"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "state", "req-1")
	})

	s.Run("unknown endpoint", func() {
		s.transactions.EXPECT().Request(gomock.Any(), "nope").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Invalid or expired transaction endpoint"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/verify/nope"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *RouterSuite) TestWalletResponse() {
	submission := verification.PresentationSubmission{
		ID:           "sub-1",
		DefinitionID: "pd-1",
		DescriptorMap: []verification.DescriptorMapping{
			{ID: "degree", Format: "ldp_vp", Path: "$", PathNested: &verification.NestedPath{Format: "ldp_vc", Path: "$.verifiableCredential[0]"}},
		},
	}

	s.Run("json body", func() {
		s.transactions.EXPECT().Response(gomock.Any(), "endpoint-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, resp *verification.TransactionResponse) (*models.Redirect, error) {
				s.Equal("req-1", resp.State)
				s.JSONEq(`{"type":"VerifiablePresentation"}`, string(resp.VPToken))
				s.Equal(submission, resp.PresentationSubmission)
				return &models.Redirect{RedirectURI: "openid4vp://response_code=ABC123"}, nil
			})

		body := map[string]any{
			"vp_token":                map[string]string{"type": "VerifiablePresentation"},
			"presentation_submission": submission,
			"state":                   "req-1",
		}
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify/endpoint-1", body))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "redirect_uri", "openid4vp://response_code=ABC123")
	})

	s.Run("direct_post form body", func() {
		s.transactions.EXPECT().Response(gomock.Any(), "endpoint-1", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, resp *verification.TransactionResponse) (*models.Redirect, error) {
				s.Equal("req-1", resp.State)
				s.JSONEq(`[{"type":"VerifiablePresentation"}]`, string(resp.VPToken))
				s.Equal(submission, resp.PresentationSubmission)
				return &models.Redirect{RedirectURI: "openid4vp://response_code=ABC123"}, nil
			})

		form := url.Values{
			"vp_token":                {`[{"type":"VerifiablePresentation"}]`},
			"presentation_submission": {testutil.MustMarshal(s.T(), submission)},
			"state":                   {"req-1"},
		}
		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), "/verify/endpoint-1", form))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("malformed form vp_token", func() {
		s.transactions.EXPECT().Response(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), "/verify/endpoint-1", url.Values{"vp_token": {"{nope"}}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("verification failure keeps its code", func() {
		s.transactions.EXPECT().Response(gomock.Any(), "endpoint-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeMissingField, "Submission missing field $.credentialSubject.name"))

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verify/endpoint-1", `{"vp_token":{},"state":"req-1"}`))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		body := testutil.DecodeError(s.T(), rr)
		s.Equal("missing_field", body.Error)
		s.Equal("Submission missing field $.credentialSubject.name", body.ErrorDescription)
	})

	s.Run("index divergence hides details", func() {
		s.transactions.EXPECT().Response(gomock.Any(), "endpoint-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeDataIntegrity, "transaction index diverged"))

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verify/endpoint-1", `{"vp_token":{}}`))
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		s.NotContains(rr.Body.String(), "diverged")
	})
}

func (s *RouterSuite) TestResult() {
	s.Run("missing parameters", func() {
		s.transactions.EXPECT().Result(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		rr := testutil.DoRequest(s.router, asDevice(testutil.NewRequest(s.T(), http.MethodGet, "/result?transaction_id=tx-1")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("requires a device", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/result?transaction_id=tx-1&response_code=ABC123"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("redeems", func() {
		s.transactions.EXPECT().Result(gomock.Any(), "tx-1", "ABC123").Return([]verification.PresentedCredential{
			{Cred: "degree", Key: "$.credentialSubject.name", Value: "Alice", Issuer: "did:web:issuer.example"},
		}, nil)

		rr := testutil.DoRequest(s.router, asDevice(testutil.NewRequest(s.T(), http.MethodGet, "/result?transaction_id=tx-1&response_code=ABC123")))
		testutil.AssertStatusOK(s.T(), rr)
		var got []map[string]any
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &got))
		s.Equal([]map[string]any{{"cred": "degree", "key": "$.credentialSubject.name", "value": "Alice", "issuer": "did:web:issuer.example"}}, got)
	})

	s.Run("wrong code", func() {
		s.transactions.EXPECT().Result(gomock.Any(), "tx-1", "WRONG1").
			Return(nil, dErrors.New(dErrors.CodeIncorrectCode, "Incorrect Response Code"))

		rr := testutil.DoRequest(s.router, asDevice(testutil.NewRequest(s.T(), http.MethodGet, "/result?transaction_id=tx-1&response_code=WRONG1")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "incorrect_code")
	})
}

func (s *RouterSuite) TestResultRateLimit() {
	router := s.newRouter(adminToken, func(cfg *RouterConfig) {
		cfg.RateLimit = ratelimit.New(rlstore.New(), map[rlmodels.Class]rlmodels.Limit{
			rlmodels.ClassResult: {Requests: 1, Window: time.Minute},
		}, cfg.Logger)
	})
	s.transactions.EXPECT().Result(gomock.Any(), "tx-1", "GUESS1").
		Return(nil, dErrors.New(dErrors.CodeIncorrectCode, "Incorrect Response Code"))

	rr := testutil.DoRequest(router, asDevice(testutil.NewRequest(s.T(), http.MethodGet, "/result?transaction_id=tx-1&response_code=GUESS1")))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)

	rr = testutil.DoRequest(router, asDevice(testutil.NewRequest(s.T(), http.MethodGet, "/result?transaction_id=tx-1&response_code=GUESS2")))
	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
	s.Equal("0", rr.Header().Get("X-RateLimit-Remaining"))

	// forwarding headers from an untrusted peer do not buy a fresh budget
	req := asDevice(testutil.NewRequest(s.T(), http.MethodGet, "/result?transaction_id=tx-1&response_code=GUESS3"))
	req.Header.Set("X-Forwarded-For", "203.0.113.77")
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
}

func (s *RouterSuite) TestPresentationDefinition() {
	s.Run("invalid requests are rejected before generation", func() {
		s.definitions.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(0)
		body := []pdmodels.CredentialRequest{{ID: "x", Fields: []pdmodels.FieldRequest{{Path: "$.a", Filter: "(unclosed"}}}}
		rr := testutil.DoRequest(s.router, asDevice(testutil.NewJSONRequest(s.T(), http.MethodPost, "/presentation_definition", body)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("generates", func() {
		body := []pdmodels.CredentialRequest{{ID: "x", Fields: []pdmodels.FieldRequest{{Path: "$.a"}}}}
		s.definitions.EXPECT().Generate(gomock.Any(), body).Return(&pdmodels.Definition{ID: "pd-1"}, nil)

		rr := testutil.DoRequest(s.router, asDevice(testutil.NewJSONRequest(s.T(), http.MethodPost, "/presentation_definition", body)))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "id", "pd-1")
	})

	s.Run("returns the requested credentials", func() {
		s.definitions.EXPECT().Requested().Return([]pdmodels.CredentialRequest{{ID: "x"}}, nil)

		rr := testutil.DoRequest(s.router, asDevice(testutil.NewRequest(s.T(), http.MethodGet, "/presentation_definition")))
		testutil.AssertStatusOK(s.T(), rr)
		var got []pdmodels.CredentialRequest
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &got))
		s.Equal("x", got[0].ID)
	})
}

func (s *RouterSuite) TestMetadataFiles() {
	logo := filepath.Join(s.T().TempDir(), "logo.png")
	s.Require().NoError(os.WriteFile(logo, []byte("png-bytes"), 0o600))
	uploads := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(uploads, "policy.txt"), []byte("policy-text"), 0o600))
	s.metadata.EXPECT().Metadata().Return(storage.Metadata{Name: "Bar", LogoPath: logo, PolicyPath: "policy.txt"}, nil).AnyTimes()
	s.metadata.EXPECT().UploadsDir().Return(uploads).AnyTimes()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metadata/logo"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("png-bytes", rr.Body.String())

	// relative to the uploads directory
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metadata/policy"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("policy-text", rr.Body.String())

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metadata/tos"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	s.Equal("Terms of Service not found", testutil.DecodeError(s.T(), rr).ErrorDescription)
}

func (s *RouterSuite) TestMetadataUpdate() {
	name, purpose := "Bar", "Age check"
	s.metadata.EXPECT().UpdateMetadata(gomock.Any(), storage.MetadataPatch{Name: &name, Purpose: &purpose}).Return(nil)
	s.metadata.EXPECT().UpdateName(gomock.Any(), "Bar").Return(nil)

	rr := testutil.DoRequest(s.router, asDevice(testutil.NewJSONRequest(s.T(), http.MethodPost, "/metadata", map[string]string{"name": name, "purpose": purpose})))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *RouterSuite) TestAdmin() {
	s.Run("not mounted without a token", func() {
		router := s.newRouter("")
		rr := testutil.DoRequest(router, asAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/admin/devices")))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("rejects a wrong token", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/devices")
		req.Header.Set(admin.TokenHeader, "wrong")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("register device", func() {
		s.devices.EXPECT().Register(gomock.Any(), "phone-2").Return("generated-pw", nil)
		s.setup.EXPECT().Data().Return(storage.Data{URL: "https://sp.example", Name: "Bar"}, nil)

		rr := testutil.DoRequest(s.router, asAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/devices", map[string]string{"device_id": "phone-2"})))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.Equal("no-store", rr.Header().Get("Cache-Control"))
		got := testutil.DecodeResponse[registerDeviceResponse](s.T(), rr)
		s.Equal(registerDeviceResponse{DeviceID: "phone-2", Password: "generated-pw", URL: "https://sp.example", Name: "Bar", Approved: true, Setup: true}, *got)
	})

	s.Run("list and deauthorize", func() {
		s.devices.EXPECT().Devices(gomock.Any()).Return([]string{"phone-1", "phone-2"}, nil)
		rr := testutil.DoRequest(s.router, asAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/admin/devices")))
		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`["phone-1","phone-2"]`, rr.Body.String())

		s.devices.EXPECT().Deauthorize(gomock.Any(), "phone-9").Return(dErrors.New(dErrors.CodeNotFound, "Device not found"))
		rr = testutil.DoRequest(s.router, asAdmin(testutil.NewRequest(s.T(), http.MethodDelete, "/admin/devices/phone-9")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("setup on an initialised store updates url and name", func() {
		s.setup.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(dErrors.New(dErrors.CodeInvalidState, "data already initialized"))
		s.setup.EXPECT().UpdateURL(gomock.Any(), "http://10.0.0.5:3000").Return(nil)
		s.setup.EXPECT().UpdateName(gomock.Any(), "Bar").Return(nil)
		s.setup.EXPECT().Data().Return(storage.Data{URL: "http://10.0.0.5:3000", Name: "Bar"}, nil)

		rr := testutil.DoRequest(s.router, asAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/setup", map[string]string{"url": "http://10.0.0.5:3000/", "name": "Bar"})))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "setup", true)
	})

	s.Run("setup requires a url", func() {
		rr := testutil.DoRequest(s.router, asAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/setup", map[string]string{"name": "Bar"})))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *RouterSuite) TestVerifyHandlerWithoutRouter() {
	h := NewVerifyHandler(s.transactions, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.transactions.EXPECT().New(gomock.Any(), "n-1").DoAndReturn(
		func(ctx context.Context, _ string) (*models.Created, error) {
			s.Equal("kiosk", requestcontext.DeviceID(ctx))
			return &models.Created{ResponseURI: "https://sp.example/verify/e"}, nil
		})

	req := testutil.WithDeviceID(testutil.NewJSONRequest(s.T(), http.MethodPost, "/verify", map[string]string{"nonce": "n-1"}), "kiosk")
	rr := testutil.DoRequest(http.HandlerFunc(h.handleNew), req)
	testutil.AssertStatusOK(s.T(), rr)
}
