// Package formatting converts model output and domain values into their
// wire and presentation forms.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON indicates content held neither raw JSON nor a fenced JSON
// block.
var ErrNoJSON = errors.New("content contains no JSON value")

// Parse decodes a JSON value of type T from content. Content may be raw
// JSON or JSON wrapped in a markdown code fence, which chat models emit
// despite instructions to answer with JSON alone.
func Parse[T any](content string) (T, error) {
	var result T

	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), &result); err == nil {
		return result, nil
	}

	block, ok := fencedBlock(trimmed)
	if !ok {
		return result, ErrNoJSON
	}

	if err := json.Unmarshal([]byte(block), &result); err != nil {
		return result, fmt.Errorf("parsing fenced JSON: %w", err)
	}

	return result, nil
}

// fencedBlock extracts the body of the first ``` fence, tolerating a
// json language tag on the opening line.
func fencedBlock(content string) (string, bool) {
	start := strings.Index(content, "```")
	if start < 0 {
		return "", false
	}

	rest := content[start+3:]
	rest = strings.TrimPrefix(rest, "json")

	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}

	return strings.TrimSpace(rest[:end]), true
}
