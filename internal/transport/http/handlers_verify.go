package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"spverifier/internal/transaction/models"
	"spverifier/internal/verification"
	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/platform/httputil"
	"spverifier/pkg/requestcontext"
)

const maxFormBytes = 1 << 20

// TransactionService runs verification transactions.
type TransactionService interface {
	New(ctx context.Context, nonce string) (*models.Created, error)
	Request(ctx context.Context, endpoint string) (*models.AuthorizationRequest, error)
	Response(ctx context.Context, endpoint string, resp *verification.TransactionResponse) (*models.Redirect, error)
	Result(ctx context.Context, transactionID, responseCode string) ([]verification.PresentedCredential, error)
}

// VerifyHandler serves the OpenID4VP endpoints.
type VerifyHandler struct {
	transactions TransactionService
	logger       *slog.Logger
}

func NewVerifyHandler(transactions TransactionService, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{transactions: transactions, logger: logger}
}

// Register mounts the wallet-facing routes on r and the relying-party routes
// behind deviceAuth.
func (h *VerifyHandler) Register(r chi.Router, deviceAuth func(http.Handler) http.Handler) {
	r.Get("/verify/{endpoint}", h.handleRequest)
	r.Post("/verify/{endpoint}", h.handleResponse)
	r.Group(func(r chi.Router) {
		r.Use(deviceAuth)
		r.Post("/verify", h.handleNew)
		r.Get("/result", h.handleResult)
	})
}

type newTransactionRequest struct {
	Nonce string `json:"nonce"`
}

func (h *VerifyHandler) handleNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[newTransactionRequest](r)
	if err != nil || strings.TrimSpace(req.Nonce) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid or missing nonce"))
		return
	}

	created, err := h.transactions.New(ctx, req.Nonce)
	if err != nil {
		h.fail(ctx, w, "failed to create transaction", err)
		return
	}

	// The relying party turns this into the QR code the wallet scans.
	created.ResponseURI = "openid4vp://" + url.Values{
		"client_id":    {created.ResponseURI},
		"response_uri": {created.ResponseURI},
	}.Encode()

	h.logger.InfoContext(ctx, "verification started",
		"request_id", requestcontext.RequestID(ctx),
		"device_id", requestcontext.DeviceID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, created)
}

func (h *VerifyHandler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authRequest, err := h.transactions.Request(ctx, chi.URLParam(r, "endpoint"))
	if err != nil {
		h.fail(ctx, w, "authorization request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, authRequest)
}

func (h *VerifyHandler) handleResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := decodeTransactionResponse(w, r)
	if err != nil {
		h.fail(ctx, w, "invalid wallet response", err)
		return
	}

	redirect, err := h.transactions.Response(ctx, chi.URLParam(r, "endpoint"), resp)
	if err != nil {
		h.fail(ctx, w, "wallet response rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, redirect)
}

func (h *VerifyHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	transactionID, responseCode := q.Get("transaction_id"), q.Get("response_code")
	if transactionID == "" || responseCode == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Transaction data not found"))
		return
	}

	presented, err := h.transactions.Result(ctx, transactionID, responseCode)
	if err != nil {
		h.fail(ctx, w, "result redemption failed", err)
		return
	}
	if presented == nil {
		presented = []verification.PresentedCredential{}
	}
	httputil.WriteJSON(w, http.StatusOK, presented)
}

func (h *VerifyHandler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{"error", err, "code", dErrors.CodeOf(err), "request_id", requestcontext.RequestID(ctx)}
	if dErrors.HTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

// decodeTransactionResponse accepts a JSON body or a direct_post form body in
// which vp_token and presentation_submission are JSON-encoded strings.
func decodeTransactionResponse(w http.ResponseWriter, r *http.Request) (*verification.TransactionResponse, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		return httputil.DecodeJSON[verification.TransactionResponse](r)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form body")
	}

	resp := &verification.TransactionResponse{State: r.PostForm.Get("state")}
	if raw := r.PostForm.Get("vp_token"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "vp_token is not valid JSON")
		}
		resp.VPToken = json.RawMessage(raw)
	}
	if raw := r.PostForm.Get("presentation_submission"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &resp.PresentationSubmission); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "presentation_submission is not valid JSON")
		}
	}
	return resp, nil
}
