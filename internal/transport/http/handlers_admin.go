package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"spverifier/internal/storage"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/platform/httputil"
	"spverifier/pkg/requestcontext"
)

type DeviceService interface {
	Register(ctx context.Context, deviceID string) (string, error)
	Devices(ctx context.Context) ([]string, error)
	Deauthorize(ctx context.Context, deviceID string) error
}

type SetupStore interface {
	Data() (storage.Data, error)
	Initialise(ctx context.Context, data storage.Data) error
	UpdateURL(ctx context.Context, url string) error
	UpdateName(ctx context.Context, name string) error
}

// AdminHandler is the operator surface: first-run setup and device approval.
type AdminHandler struct {
	devices DeviceService
	store   SetupStore
	logger  *slog.Logger
}

func NewAdminHandler(devices DeviceService, store SetupStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{devices: devices, store: store, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router, adminAuth func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuth)
		r.Post("/setup", h.handleSetup)
		r.Get("/devices", h.handleListDevices)
		r.Post("/devices", h.handleRegisterDevice)
		r.Delete("/devices/{deviceID}", h.handleDeauthorize)
	})
}

type setupRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	DID  string `json:"did"`
}

func (h *AdminHandler) handleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[setupRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.URL = strings.TrimRight(strings.TrimSpace(req.URL), "/")
	if req.URL == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "url is required"))
		return
	}

	err = h.store.Initialise(ctx, storage.Data{
		URL:      req.URL,
		Name:     req.Name,
		DID:      req.DID,
		Metadata: storage.Metadata{Name: req.Name},
	})
	if dErrors.HasCode(err, dErrors.CodeInvalidState) {
		err = h.store.UpdateURL(ctx, req.URL)
		if err == nil && req.Name != "" {
			err = h.store.UpdateName(ctx, req.Name)
		}
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "setup failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}

	data, err := h.store.Data()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "verifier configured", "url", data.URL, "request_id", requestcontext.RequestID(ctx))
	httputil.WriteJSON(w, http.StatusOK, setupResponse{URL: data.URL, Name: data.Name, Setup: data.Name != ""})
}

type setupResponse struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Setup bool   `json:"setup"`
}

func (h *AdminHandler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ids, err := h.devices.Devices(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ids)
}

type registerDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

type registerDeviceResponse struct {
	DeviceID string `json:"device_id"`
	Password string `json:"password"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Approved bool   `json:"approved"`
	Setup    bool   `json:"setup"`
}

func (h *AdminHandler) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[registerDeviceRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	password, err := h.devices.Register(ctx, req.DeviceID)
	if err != nil {
		h.logger.WarnContext(ctx, "device registration failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	data, err := h.store.Data()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusCreated, registerDeviceResponse{
		DeviceID: strings.TrimSpace(req.DeviceID),
		Password: password,
		URL:      data.URL,
		Name:     data.Name,
		Approved: true,
		Setup:    data.Name != "",
	})
}

func (h *AdminHandler) handleDeauthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.devices.Deauthorize(ctx, chi.URLParam(r, "deviceID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Device deauthorized successfully"})
}
