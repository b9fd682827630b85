package testutil

import (
	"net/http"

	"spverifier/pkg/requestcontext"
)

// WithDeviceID marks the request as coming from an authenticated device,
// as the device auth middleware would.
func WithDeviceID(req *http.Request, deviceID string) *http.Request {
	return req.WithContext(requestcontext.WithDeviceID(req.Context(), deviceID))
}
