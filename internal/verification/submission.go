package verification

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"

	"spverifier/internal/presentation/models"
	dErrors "spverifier/pkg/domain-errors"
)

var (
	pathLanguage = gval.Full(jsonpath.PlaceholderExtension())

	// A nested path rooted at a single presentation ("$.verifiableCredential[0]")
	// is evaluated against the vp_token array, so it is pinned to the first element.
	rootWithoutIndex = regexp.MustCompile(`^\$([^\[]|$)`)
)

// VerifySubmission checks a presentation submission against the definition
// and extracts every constrained field from the presented credentials.
//
// Descriptors are checked for completeness first, then each submitted
// descriptor in submission order: it must be requested, declare ldp_vp and
// address an object inside vpTokens. Fields are then checked in definition
// order. The first failure aborts; no partial result is returned.
func VerifySubmission(resp *TransactionResponse, vpTokens []Document, def *models.Definition) ([]PresentedCredential, error) {
	submitted := make(map[string]struct{}, len(resp.PresentationSubmission.DescriptorMap))
	for _, m := range resp.PresentationSubmission.DescriptorMap {
		submitted[m.ID] = struct{}{}
	}
	for _, d := range def.InputDescriptors {
		if _, ok := submitted[d.ID]; !ok {
			return nil, dErrors.New(dErrors.CodeMissingDescriptor, "Missing required credential descriptor: "+d.ID)
		}
	}

	root := make([]any, len(vpTokens))
	for i, vp := range vpTokens {
		root[i] = map[string]any(vp)
	}

	presented := make([]PresentedCredential, 0)
	for _, mapping := range resp.PresentationSubmission.DescriptorMap {
		descriptor, ok := def.Descriptor(mapping.ID)
		if !ok {
			return nil, dErrors.New(dErrors.CodeUnexpectedDescriptor, "Unexpected descriptor in submission: "+mapping.ID)
		}
		if mapping.Format != FormatLDPVP {
			return nil, dErrors.Newf(dErrors.CodeFormatMismatch, "descriptor %s: %s not %s", mapping.ID, mapping.Format, FormatLDPVP)
		}

		credential, err := locateCredential(root, mapping)
		if err != nil {
			return nil, err
		}
		issuer := issuerID(credential["issuer"])

		for _, field := range descriptor.Constraints.Fields {
			if len(field.Path) == 0 {
				continue
			}
			path := field.Path[0]
			value, found := selectPath(credential, path)
			if !found {
				return nil, dErrors.New(dErrors.CodeMissingField, "Submission missing field "+path)
			}
			if field.Filter != nil {
				if err := checkFilter(path, value, field.Filter); err != nil {
					return nil, err
				}
			}
			presented = append(presented, PresentedCredential{
				Cred:   mapping.ID,
				Key:    path,
				Value:  value,
				Issuer: issuer,
			})
		}
	}
	return presented, nil
}

func locateCredential(root []any, mapping DescriptorMapping) (map[string]any, error) {
	if mapping.PathNested == nil {
		return nil, dErrors.New(dErrors.CodePathMismatch, "Presentation Token does not match submission "+mapping.Path)
	}
	nested := mapping.PathNested.Path
	value, found := selectPath(root, rootWithoutIndex.ReplaceAllString(nested, "$$[0]$1"))
	credential, isObject := value.(map[string]any)
	if !found || !isObject {
		return nil, dErrors.New(dErrors.CodePathMismatch, "Presentation Token does not match submission "+nested)
	}
	return credential, nil
}

// ParsePath checks that path is a plain JSONPath the submission checks can
// evaluate. Keys with dashes need the bracket form ["given-name"]; a bare
// .given-name parses as subtraction and single-quoted keys do not parse.
func ParsePath(path string) error {
	if _, err := jsonpath.New(path); err != nil {
		return err
	}
	_, err := pathLanguage.NewEvaluable(path)
	return err
}

// selectPath evaluates a JSONPath against a decoded JSON value. Unknown keys,
// out of range indices and null values all count as not found.
func selectPath(doc any, path string) (any, bool) {
	eval, err := pathLanguage.NewEvaluable(path)
	if err != nil {
		return nil, false
	}
	value, err := eval(context.Background(), doc)
	if err != nil || value == nil {
		return nil, false
	}
	return value, true
}

func checkFilter(path string, value any, filter *models.Filter) error {
	if typeOf(value) != filter.Type {
		return dErrors.Newf(dErrors.CodeTypeMismatch, "Field %s is not of type %s", path, filter.Type)
	}
	re, err := regexp.Compile(filter.Pattern)
	if err != nil || !re.MatchString(stringify(value)) {
		return dErrors.Newf(dErrors.CodePatternMismatch, "Field %s does not match filter %s", path, filter.Pattern)
	}
	return nil
}

// typeOf names a decoded JSON value the way JSON Schema filters do for the
// scalar types; arrays and objects are both "object".
func typeOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return "object"
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		raw, _ := json.Marshal(t)
		return string(raw)
	}
}
