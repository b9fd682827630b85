package did

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/multiformats/go-multibase"

	"spverifier/pkg/platform/sentinel"
)

const (
	wellKnownPath = "/.well-known/did.json"
	documentPath  = "/did.json"

	multicodecEd25519 = 0xed
	multicodecBLSG2   = 0xeb
	multicodecBLSG1G2 = 0xee

	defaultMaxDocumentBytes = 1 << 20
)

// MethodResolverOptions configures a MethodResolver.
type MethodResolverOptions struct {
	// HTTPClient fetches did:web documents. Defaults to a 10s timeout client.
	HTTPClient *http.Client
	// MaxDocumentBytes caps a fetched did:web document (default 1 MiB).
	MaxDocumentBytes int64
	// UseHTTP fetches did:web over plain HTTP, for local development.
	UseHTTP bool
}

// MethodResolver resolves did:web over the network and did:key locally.
type MethodResolver struct {
	client   *http.Client
	maxBytes int64
	scheme   string
}

func NewMethodResolver(opts MethodResolverOptions) *MethodResolver {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	maxBytes := opts.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxDocumentBytes
	}
	scheme := "https://"
	if opts.UseHTTP {
		scheme = "http://"
	}
	return &MethodResolver{client: client, maxBytes: maxBytes, scheme: scheme}
}

// Resolve implements Resolver.
func (r *MethodResolver) Resolve(ctx context.Context, did string) (Document, error) {
	did = stripURL(did)
	switch Method(did) {
	case "key":
		return resolveKey(did)
	case "web":
		return r.resolveWeb(ctx, did)
	default:
		return nil, fmt.Errorf("unsupported DID method in %q", did)
	}
}

func resolveKey(did string) (Document, error) {
	fp := strings.TrimPrefix(did, "did:key:")
	if fp == "" {
		return nil, fmt.Errorf("empty did:key identifier")
	}
	_, raw, err := multibase.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("decode did:key %q: %w", did, err)
	}
	code, n := binary.Uvarint(raw)
	if n <= 0 {
		return nil, fmt.Errorf("did:key %q: invalid multicodec prefix", did)
	}
	key := raw[n:]

	var keyType string
	switch code {
	case multicodecEd25519:
		if len(key) != 32 {
			return nil, fmt.Errorf("did:key %q: ed25519 key has %d bytes", did, len(key))
		}
		keyType = "Ed25519VerificationKey2020"
	case multicodecBLSG2:
		if len(key) != 96 {
			return nil, fmt.Errorf("did:key %q: bls12-381 g2 key has %d bytes", did, len(key))
		}
		keyType = "Bls12381G2Key2020"
	case multicodecBLSG1G2:
		keyType = "Bls12381G2Key2020"
	default:
		return nil, fmt.Errorf("did:key %q: unsupported multicodec 0x%x", did, code)
	}

	vmID := did + "#" + fp
	return Document{
		"@context": []any{"https://www.w3.org/ns/did/v1"},
		"id":       did,
		"verificationMethod": []any{map[string]any{
			"id":                 vmID,
			"type":               keyType,
			"controller":         did,
			"publicKeyMultibase": fp,
		}},
		"authentication":       []any{vmID},
		"assertionMethod":      []any{vmID},
		"capabilityDelegation": []any{vmID},
		"capabilityInvocation": []any{vmID},
	}, nil
}

// webDocumentURL maps did:web:example.com to https://example.com/.well-known/did.json
// and did:web:example.com:users:alice to https://example.com/users/alice/did.json.
func (r *MethodResolver) webDocumentURL(did string) (string, error) {
	msid := strings.TrimPrefix(did, "did:web:")
	if msid == "" {
		return "", fmt.Errorf("empty did:web host")
	}
	parts := strings.Split(msid, ":")
	host, err := url.QueryUnescape(parts[0])
	if err != nil {
		return "", fmt.Errorf("parse did:web host: %w", err)
	}
	if strings.ContainsAny(host, "/@") {
		return "", fmt.Errorf("invalid did:web host %q", host)
	}
	if len(parts) == 1 {
		return r.scheme + host + wellKnownPath, nil
	}
	return r.scheme + host + "/" + strings.Join(parts[1:], "/") + documentPath, nil
}

func (r *MethodResolver) resolveWeb(ctx context.Context, did string) (Document, error) {
	address, err := r.webDocumentURL(did)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("build did:web request: %w", err)
	}
	req.Header.Set("Accept", "application/did+json, application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", address, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: HTTP %d: %w", address, resp.StatusCode, sentinel.ErrUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", address, err)
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse did:web document: %w", err)
	}
	if doc.ID() != did {
		return nil, fmt.Errorf("document id %q does not match %q", doc.ID(), did)
	}
	return doc, nil
}
