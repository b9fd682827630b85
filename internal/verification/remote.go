package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxVerdictBytes = 64 << 10

// HTTPVerifier delegates proof checking to a linked-data signature service.
// Every context and the verification method are dereferenced locally through
// the loader and shipped with the request, so the remote service never
// fetches anything itself.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPVerifier(endpoint string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPVerifier{endpoint: endpoint, client: client}
}

type verifyRequest struct {
	Document           Document       `json:"document"`
	Suite              string         `json:"suite"`
	Purpose            string         `json:"purpose"`
	Contexts           map[string]any `json:"contexts"`
	VerificationMethod any            `json:"verificationMethod"`
}

func (h *HTTPVerifier) Verify(ctx context.Context, doc Document, opts ProofOptions) (Result, error) {
	proof, err := doc.Proof()
	if err != nil {
		return Result{}, fmt.Errorf("decode proof: %w", err)
	}

	body := verifyRequest{
		Document: doc,
		Suite:    opts.Suite,
		Purpose:  opts.Purpose,
		Contexts: map[string]any{},
	}
	if opts.Loader != nil {
		for _, url := range contextURLs(doc) {
			remote, err := opts.Loader.Load(ctx, url)
			if err != nil {
				return Result{}, err
			}
			if remote != nil {
				body.Contexts[url] = remote.Document
			}
		}
		if proof.VerificationMethod != "" {
			remote, err := opts.Loader.Load(ctx, proof.VerificationMethod)
			if err != nil {
				return Result{}, err
			}
			if remote == nil {
				return Result{Verified: false, Error: "verification method could not be loaded"}, nil
			}
			body.VerificationMethod = remote.Document
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("encode verify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call signature service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("signature service returned %d", resp.StatusCode)
	}
	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVerdictBytes)).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode verdict: %w", err)
	}
	return result, nil
}

func contextURLs(doc Document) []string {
	switch v := doc["@context"].(type) {
	case string:
		return []string{v}
	case []any:
		urls := make([]string, 0, len(v))
		for _, c := range v {
			if s, ok := c.(string); ok {
				urls = append(urls, s)
			}
		}
		return urls
	}
	return nil
}
