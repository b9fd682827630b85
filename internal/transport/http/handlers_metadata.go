package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"spverifier/internal/storage"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/platform/httputil"
	"spverifier/pkg/requestcontext"
)

type MetadataStore interface {
	Metadata() (storage.Metadata, error)
	UpdateMetadata(ctx context.Context, patch storage.MetadataPatch) error
	UpdateName(ctx context.Context, name string) error
	UploadsDir() string
}

// MetadataHandler serves the verifier's display files to wallets and lets a
// device change its display name and purpose.
type MetadataHandler struct {
	store  MetadataStore
	logger *slog.Logger
}

func NewMetadataHandler(store MetadataStore, logger *slog.Logger) *MetadataHandler {
	return &MetadataHandler{store: store, logger: logger}
}

func (h *MetadataHandler) Register(r chi.Router, deviceAuth func(http.Handler) http.Handler) {
	r.Get("/metadata/logo", h.serveFile(func(m storage.Metadata) string { return m.LogoPath }, "Logo not found"))
	r.Get("/metadata/tos", h.serveFile(func(m storage.Metadata) string { return m.TOSPath }, "Terms of Service not found"))
	r.Get("/metadata/policy", h.serveFile(func(m storage.Metadata) string { return m.PolicyPath }, "Policy not found"))
	r.With(deviceAuth).Post("/metadata", h.handleUpdate)
}

func (h *MetadataHandler) serveFile(pick func(storage.Metadata) string, notFound string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		md, err := h.store.Metadata()
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotInitialized) {
			httputil.WriteError(w, err)
			return
		}
		path := pick(md)
		if path == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, notFound))
			return
		}
		// relative paths are stored against the uploads directory
		if !filepath.IsAbs(path) {
			path = filepath.Join(h.store.UploadsDir(), path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeFileOperation, "invalid metadata path"))
			return
		}
		http.ServeFile(w, r, abs)
	}
}

type metadataRequest struct {
	Name    *string `json:"name"`
	Purpose *string `json:"purpose"`
}

func (h *MetadataHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[metadataRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.store.UpdateMetadata(ctx, storage.MetadataPatch{Name: req.Name, Purpose: req.Purpose}); err != nil {
		h.logger.ErrorContext(ctx, "failed to save metadata", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	if req.Name != nil {
		if err := h.store.UpdateName(ctx, *req.Name); err != nil {
			h.logger.ErrorContext(ctx, "failed to save name", "error", err, "request_id", requestcontext.RequestID(ctx))
			httputil.WriteError(w, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Metadata received and saved successfully"})
}
