// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structured turns free-form model output into shape-validated
// values. A caller declares the shape it needs and a fallback; Extract
// always returns a usable value, never an error, so one bad model
// response cannot stall a pipeline run.
package structured

import (
	"context"
	"encoding/json"
	"regexp"

	"go.uber.org/zap"

	"github.com/agoradev/lawgraph/internal/ai"
)

// Kind classifies a top-level field of a declared shape.
type Kind int

const (
	// String is a plain JSON string.
	String Kind = iota

	// ListOfString is a JSON array of strings. Missing fields and
	// non-string elements coerce to an empty list rather than failing.
	ListOfString

	// ListOfObject is a JSON array of objects. Missing fields and
	// non-object elements coerce to an empty list rather than failing.
	ListOfObject

	// ObjectOfStringLists is a JSON object whose declared keys each hold
	// a list of strings. Missing keys coerce to empty lists.
	ObjectOfStringLists
)

// Field declares one top-level key of a shape.
type Field struct {
	Name string
	Kind Kind

	// Required only applies to String fields: when set, a missing key
	// fails validation. Collection fields always coerce instead.
	Required bool

	// Keys lists the sub-keys of an ObjectOfStringLists field.
	Keys []string
}

// Shape is the full set of top-level fields a caller expects.
type Shape []Field

// Result is the outcome of one extraction. When Fallback is set, Value
// is the caller's fallback and should be treated as "needs reprocessing".
type Result struct {
	Value    map[string]any
	Fallback bool
}

// Decode unmarshals the result value into a typed struct via its JSON tags.
func (r Result) Decode(v any) error {
	data, err := json.Marshal(r.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Client runs prompts through an AI backend and validates the responses.
type Client struct {
	backend ai.Backend
	log     *zap.SugaredLogger
}

// NewClient builds a client. A nil logger disables logging.
func NewClient(backend ai.Backend, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{backend: backend, log: log}
}

// Extract makes exactly one backend call and returns a value conforming
// to shape. Every failure mode (transport error, empty response, broken
// JSON, missing required keys) collapses into the fallback; retry policy
// belongs to the backend wrapper, not here.
func (c *Client) Extract(ctx context.Context, prompt string, shape Shape, fallback map[string]any) Result {
	raw, err := c.backend.Generate(ctx, prompt)
	if err != nil {
		c.log.Warnw("model call failed", "error", err)
		raw = ""
	}

	cleaned := SanitizeJSON(StripFences(raw))

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		c.log.Warnw("model response is not valid JSON", "error", err, "response", snippet(cleaned))
		return Result{Value: fallback, Fallback: true}
	}

	value, ok := conform(parsed, shape)
	if !ok {
		c.log.Warnw("model response does not match shape", "response", snippet(cleaned))
		return Result{Value: fallback, Fallback: true}
	}
	return Result{Value: value}
}

// conform validates parsed against shape and builds the normalized value
// with every declared key present.
func conform(parsed map[string]any, shape Shape) (map[string]any, bool) {
	out := make(map[string]any, len(shape))
	for _, f := range shape {
		v, present := parsed[f.Name]
		switch f.Kind {
		case String:
			if !present || v == nil {
				if f.Required {
					return nil, false
				}
				out[f.Name] = ""
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			out[f.Name] = s

		case ListOfString:
			out[f.Name] = toStringList(v)

		case ListOfObject:
			out[f.Name] = toObjectList(v)

		case ObjectOfStringLists:
			out[f.Name] = toStringLists(v, f.Keys)
		}
	}
	return out, true
}

// toObjectList keeps the object elements of a JSON array; anything else
// becomes an empty list.
func toObjectList(v any) []map[string]any {
	out := []map[string]any{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// toStringList keeps the string elements of a JSON array; anything else
// becomes an empty list.
func toStringList(v any) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, el := range list {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// toStringLists builds the declared sub-keys from a JSON object, keeping
// only string elements and filling missing keys with empty lists.
func toStringLists(v any, keys []string) map[string][]string {
	obj, _ := v.(map[string]any)
	out := make(map[string][]string, len(keys))
	for _, key := range keys {
		out[key] = toStringList(obj[key])
	}
	return out
}

// snippet truncates a response for logging.
func snippet(s string) string {
	const max = 500
	if len(s) > max {
		return s[:max]
	}
	return s
}

var controlCharRe = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeJSON replaces raw control characters with spaces. Models
// sometimes emit literal newlines or tabs inside string values, which
// json.Unmarshal rejects; between tokens the substitution is harmless.
func SanitizeJSON(s string) string {
	return controlCharRe.ReplaceAllString(s, " ")
}
