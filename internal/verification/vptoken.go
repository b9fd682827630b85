package verification

import (
	"bytes"
	"encoding/json"

	dErrors "spverifier/pkg/domain-errors"
)

// NormalizeVPToken decodes a vp_token into a list of presentations. A single
// presentation object becomes a one-element list; an array must hold only
// objects. Anything else cannot be reconciled with a submission.
func NormalizeVPToken(raw json.RawMessage) ([]Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeDataIntegrity, "vp_token is missing")
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDataIntegrity, "vp_token is not valid JSON")
	}

	switch v := decoded.(type) {
	case map[string]any:
		return []Document{v}, nil
	case []any:
		out := make([]Document, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, dErrors.Newf(dErrors.CodeDataIntegrity, "vp_token[%d] is not a presentation object", i)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, dErrors.New(dErrors.CodeDataIntegrity, "vp_token is not an array")
	}
}
