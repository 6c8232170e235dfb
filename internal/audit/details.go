// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package audit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// DetailsVersion is the current schema version of the details blob.
const DetailsVersion = 1

// ErrUnsupportedDetailsVersion is returned for blobs newer than this build.
var ErrUnsupportedDetailsVersion = errors.New("unsupported audit details version")

const redacted = "[REDACTED]"

// sensitiveKeys are matched case-insensitively as substrings of a key.
var sensitiveKeys = []string{"password", "token", "secret", "authorization"}

// Details is the versioned payload stored in Record.Details.
// Readers accept any version <= DetailsVersion and ignore unknown fields.
type Details struct {
	V          int                 `json:"v"`
	Method     string              `json:"method,omitempty"`
	Path       string              `json:"path,omitempty"`
	StatusCode int                 `json:"statusCode,omitempty"`
	Query      map[string][]string `json:"query,omitempty"`
	Payload    json.RawMessage     `json:"payload,omitempty"`
	Truncated  bool                `json:"truncated,omitempty"`
	Extra      map[string]any      `json:"extra,omitempty"`
}

// Marshal encodes d at the current version.
func (d Details) Marshal() json.RawMessage {
	d.V = DetailsVersion
	data, err := json.Marshal(d)
	if err != nil {
		return json.RawMessage(fmt.Sprintf(`{"v":%d}`, DetailsVersion))
	}
	return data
}

// ParseDetails decodes a details blob. A blob without "v" is read as v1.
func ParseDetails(raw json.RawMessage) (*Details, error) {
	var d Details
	if len(raw) == 0 {
		return &Details{V: DetailsVersion}, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode audit details: %w", err)
	}
	if d.V == 0 {
		d.V = 1
	}
	if d.V > DetailsVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDetailsVersion, d.V)
	}
	return &d, nil
}

// ExtraDetails builds a details blob for non-HTTP records.
func ExtraDetails(extra map[string]any) json.RawMessage {
	return Details{Extra: extra}.Marshal()
}

// capturePayload turns a captured request body into a JSON value with
// sensitive keys redacted. Non-JSON or truncated bodies become a string.
func capturePayload(body []byte, truncated bool) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if !truncated {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			if out, err := json.Marshal(redactValue(v)); err == nil {
				return out
			}
		}
	}
	out, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			if isSensitiveKey(k) {
				t[k] = redacted
				continue
			}
			t[k] = redactValue(inner)
		}
		return t
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
		return t
	default:
		return v
	}
}

func redactQuery(q map[string][]string) map[string][]string {
	if len(q) == 0 {
		return nil
	}
	out := make(map[string][]string, len(q))
	for k, vals := range q {
		if isSensitiveKey(k) {
			out[k] = []string{redacted}
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
