package did

import (
	"context"
	"strings"
)

// Document is a JSON object: a DID document or a JSON-LD context.
type Document map[string]any

// ID returns the document's "id" member.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// RemoteDocument is what the loader hands to linked-data processing.
type RemoteDocument struct {
	ContextURL  string   `json:"contextUrl,omitempty"`
	DocumentURL string   `json:"documentUrl"`
	Document    Document `json:"document"`
}

// Resolver resolves a DID to its document. A nil document with a nil error
// means the DID does not exist.
type Resolver interface {
	Resolve(ctx context.Context, did string) (Document, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, did string) (Document, error)

func (f ResolverFunc) Resolve(ctx context.Context, did string) (Document, error) {
	return f(ctx, did)
}

// Method returns the method of a DID ("web" for did:web:example.com).
func Method(did string) string {
	rest, ok := strings.CutPrefix(did, "did:")
	if !ok {
		return ""
	}
	method, _, ok := strings.Cut(rest, ":")
	if !ok {
		return ""
	}
	return method
}

// stripURL removes the query and fragment of a DID URL, leaving the DID.
func stripURL(didURL string) string {
	if i := strings.IndexAny(didURL, "?#"); i >= 0 {
		return didURL[:i]
	}
	return didURL
}
