// Package did turns decentralized identifiers into documents: URL conversion,
// did:web and did:key resolution with caching, and the JSON-LD document
// loader handed to signature verification.
package did

import "strings"

// URL converts a DID into the HTTP URL that hosts it. The method name and
// prefix are dropped, remaining colon-separated segments become path
// segments, and %3A decodes to a literal colon (typically a port). When no
// path remains, /.well-known is appended. Query and fragment are preserved.
//
//	did:example:subdomain%3A8080          -> http://subdomain:8080/.well-known
//	did:example:host/path?query=param     -> http://host/path?query=param
//	did:example:host/path?t=10:30         -> http://host/path?t=10:30
func URL(did string) string {
	body, suffix := did, ""
	if i := strings.IndexAny(did, "?#"); i >= 0 {
		body, suffix = did[:i], did[i:]
	}

	segments := strings.Split(body, ":")
	if len(segments) > 2 {
		segments = segments[2:]
	} else {
		segments = nil
	}
	body = strings.Join(segments, "/")
	body = strings.ReplaceAll(body, "%3A", ":")
	body = strings.ReplaceAll(body, "%3a", ":")

	if !strings.Contains(body, "/") {
		body += "/.well-known"
	}
	return "http://" + body + suffix
}
