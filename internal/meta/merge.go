package meta

import (
	"errors"
	"net/url"
	"strings"

	"github.com/featherfn/metagate/internal/entity"
)

// System-injected payload fields. They are stamped last and override any
// caller-supplied key of the same name.
const (
	FieldMetaVerb      = "__ow_meta_verb"
	FieldMetaPath      = "__ow_meta_path"
	FieldMetaNamespace = "__ow_meta_namespace"
)

// ErrUnsupportedMedia indicates a request body that is not a JSON object.
var ErrUnsupportedMedia = errors.New("meta: request body must be application/json")

// MergeInput carries the five payload sources in override order.
type MergeInput struct {
	PackageParams entity.Parameters
	ActionParams  entity.Parameters
	RawQuery      string
	Body          entity.Parameters

	Verb            string // HTTP method, any case.
	ResidualPath    string // Raw residual path, percent-encoding preserved.
	CallerNamespace string
}

// BuildPayload folds the sources left to right, each stage overriding
// keys, and stamps the system fields last. Identical inputs produce an
// identical ordered payload.
func BuildPayload(in MergeInput) entity.Parameters {
	payload := in.PackageParams.
		Merge(in.ActionParams).
		Merge(queryParameters(in.RawQuery)).
		Merge(in.Body)

	payload.Set(FieldMetaVerb, strings.ToLower(in.Verb))
	payload.Set(FieldMetaPath, in.ResidualPath)
	payload.Set(FieldMetaNamespace, in.CallerNamespace)
	return payload
}

// ParseBody validates and decodes a request body. An absent body yields
// an empty object; a JSON value that is not an object, or a non-JSON
// body, yields ErrUnsupportedMedia.
func ParseBody(contentType string, body []byte) (entity.Parameters, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return entity.Parameters{}, nil
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if mediaType != "" && mediaType != "application/json" {
		return nil, ErrUnsupportedMedia
	}

	parsed, errParse := entity.ParseObject([]byte(trimmed))
	if errParse != nil {
		return nil, ErrUnsupportedMedia
	}
	return parsed, nil
}

// queryParameters flattens the raw query string into string-valued
// parameters, preserving the order keys first appear. Repeated keys keep
// the last value.
func queryParameters(rawQuery string) entity.Parameters {
	out := entity.Parameters{}
	if rawQuery == "" {
		return out
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		keyPart := pair
		valuePart := ""
		if idx := strings.Index(pair, "="); idx >= 0 {
			keyPart = pair[:idx]
			valuePart = pair[idx+1:]
		}
		key, errKey := url.QueryUnescape(keyPart)
		if errKey != nil {
			key = keyPart
		}
		value, errValue := url.QueryUnescape(valuePart)
		if errValue != nil {
			value = valuePart
		}
		out.Set(key, value)
	}
	return out
}
