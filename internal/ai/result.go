package ai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Result is an oracle answer that is known to be a JSON object. Nothing else
// about its shape is guaranteed.
type Result struct {
	raw string
	doc gjson.Result
}

// ParseResult validates that content is a JSON object. Markdown code fences
// around the object are tolerated.
func ParseResult(content string) (*Result, error) {
	content = stripCodeFence(strings.TrimSpace(content))
	if content == "" {
		return nil, ErrEmptyResponse
	}
	if !gjson.Valid(content) {
		return nil, fmt.Errorf("%w: not valid json", ErrMalformedResponse)
	}

	doc := gjson.Parse(content)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected a json object", ErrMalformedResponse)
	}

	return &Result{raw: content, doc: doc}, nil
}

func (r *Result) Raw() string {
	return r.raw
}

func (r *Result) Has(key string) bool {
	return r.field(key).Exists()
}

// String returns the trimmed string value of a top-level key, or "".
func (r *Result) String(key string) string {
	v := r.field(key)
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

// Objects returns the object elements of a top-level array. Anything that is
// not an object is skipped; a missing or non-array key yields nil.
func (r *Result) Objects(key string) []gjson.Result {
	v := r.field(key)
	if !v.IsArray() {
		return nil
	}

	var out []gjson.Result
	for _, item := range v.Array() {
		if item.IsObject() {
			out = append(out, item)
		}
	}
	return out
}

// Scores reads every top-level key whose value is numeric (or a numeric
// string) as a score.
func (r *Result) Scores() map[string]float64 {
	scores := make(map[string]float64)
	r.doc.ForEach(func(key, value gjson.Result) bool {
		if n, ok := Number(value); ok {
			scores[strings.TrimSpace(key.String())] = n
		}
		return true
	})
	return scores
}

// Object returns the named top-level object as its own Result, if present.
func (r *Result) Object(key string) (*Result, bool) {
	v := r.field(key)
	if !v.IsObject() {
		return nil, false
	}
	return &Result{raw: v.Raw, doc: v}, true
}

// field looks a key up without gjson path syntax, so keys such as "AI/ML" or
// "v1.0" are matched literally.
func (r *Result) field(key string) gjson.Result {
	var found gjson.Result
	r.doc.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			found = v
			return false
		}
		return true
	})
	return found
}

// Number accepts json numbers and strings holding a number.
func Number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
