package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spverifier/internal/presentation"
	pdmodels "spverifier/internal/presentation/models"
	"spverifier/pkg/platform/httputil"
	"spverifier/pkg/requestcontext"
)

type DefinitionService interface {
	Generate(ctx context.Context, credentials []pdmodels.CredentialRequest) (*pdmodels.Definition, error)
	Requested() ([]pdmodels.CredentialRequest, error)
}

// DefinitionHandler lets a device set the credentials wallets are asked for.
type DefinitionHandler struct {
	definitions DefinitionService
	logger      *slog.Logger
}

func NewDefinitionHandler(definitions DefinitionService, logger *slog.Logger) *DefinitionHandler {
	return &DefinitionHandler{definitions: definitions, logger: logger}
}

func (h *DefinitionHandler) Register(r chi.Router, deviceAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(deviceAuth)
		r.Post("/presentation_definition", h.handleGenerate)
		r.Get("/presentation_definition", h.handleRequested)
	})
}

func (h *DefinitionHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[[]pdmodels.CredentialRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := presentation.Validate(*req); err != nil {
		h.logger.WarnContext(ctx, "invalid credential requests",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	def, err := h.definitions.Generate(ctx, *req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate presentation definition",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, def)
}

func (h *DefinitionHandler) handleRequested(w http.ResponseWriter, r *http.Request) {
	creds, err := h.definitions.Requested()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, creds)
}
