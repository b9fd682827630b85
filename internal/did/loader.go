package did

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"spverifier/internal/platform/metrics"
	dErrors "spverifier/pkg/domain-errors"
)

var (
	//go:embed contexts/credentials_v1.jsonld
	credentialsV1 []byte
	//go:embed contexts/credentials_examples_v1.jsonld
	credentialsExamplesV1 []byte
	//go:embed contexts/security_bbs_v1.jsonld
	securityBBSV1 []byte
	//go:embed contexts/schemaorg.jsonld
	schemaOrg []byte
)

// preloadedContexts are the only non-DID URLs the loader will ever serve.
var preloadedContexts = map[string][]byte{
	"https://www.w3.org/2018/credentials/v1":          credentialsV1,
	"https://www.w3.org/2018/credentials/examples/v1": credentialsExamplesV1,
	"https://w3id.org/security/bbs/v1":                securityBBSV1,
	"https://schema.org":                              schemaOrg,
}

// Loader dereferences URLs encountered while checking linked-data proofs.
// It never fetches arbitrary URLs: only embedded contexts, did:web and did:key.
type Loader struct {
	resolver Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewLoader(resolver Resolver, logger *slog.Logger, m *metrics.Metrics) *Loader {
	return &Loader{resolver: resolver, logger: logger, metrics: m}
}

// Load returns the document for url. Unsupported URLs yield (nil, nil).
func (l *Loader) Load(ctx context.Context, url string) (*RemoteDocument, error) {
	if raw, ok := preloadedContexts[url]; ok {
		l.count("context")
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode embedded context %s: %w", url, err)
		}
		return &RemoteDocument{DocumentURL: url, Document: doc}, nil
	}

	if strings.HasPrefix(url, "did:web:") || strings.HasPrefix(url, "did:key:") {
		l.count("did")
		doc, err := l.resolver.Resolve(ctx, url)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeDIDResolution, "failed to resolve DID: "+url)
		}
		if doc == nil {
			return nil, dErrors.New(dErrors.CodeDIDResolution, "failed to resolve DID: "+url)
		}
		return &RemoteDocument{DocumentURL: url, Document: doc}, nil
	}

	l.count("unsupported")
	l.logger.WarnContext(ctx, "attempt to load unsupported URL", "url", url)
	return nil, nil
}

func (l *Loader) count(source string) {
	if l.metrics != nil {
		l.metrics.IncrementDocumentLoads(source)
	}
}
