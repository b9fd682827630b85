// Package auth guards device routes with a bearer password issued at
// device registration.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	dErrors "spverifier/pkg/domain-errors"
	"spverifier/pkg/requestcontext"
)

// DeviceAuthenticator resolves a device password to its device id.
type DeviceAuthenticator interface {
	Authenticate(ctx context.Context, password string) (string, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireDevice authenticates "Authorization: Bearer <password>" and puts the
// device id into the request context.
func RequireDevice(authenticator DeviceAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			password, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || password == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			deviceID, err := authenticator.Authenticate(ctx, password)
			if err != nil {
				switch dErrors.CodeOf(err) {
				case dErrors.CodeNotFound:
					logger.WarnContext(ctx, "unauthorized access - no devices registered",
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusNotFound, "not_found", "No devices registered")
				case dErrors.CodeUnauthorized:
					logger.WarnContext(ctx, "unauthorized access - invalid password",
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid password")
				default:
					logger.ErrorContext(ctx, "failed to authenticate device",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to authenticate device")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithDeviceID(ctx, deviceID)))
		})
	}
}
