package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Models wrap structured answers in prose or markdown fences more often than
// not, so the extraction is deliberately lenient: scan the completion for the
// first JSON object or array and unmarshal that. No nesting support for
// objects; the contracts used here are flat.
var (
	objectPattern = regexp.MustCompile(`\{[^{}]+\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractObject finds the first {...} block in text and unmarshals it into v.
// Failures are reported as ErrMalformedJSON.
func ExtractObject(text string, v any) error {
	payload := objectPattern.FindString(text)
	if payload == "" {
		// No block found: maybe the whole completion is the object
		payload = text
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}

// ExtractArray finds the first [...] block in text and unmarshals it into v.
func ExtractArray(text string, v any) error {
	payload := arrayPattern.FindString(text)
	if payload == "" {
		payload = text
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return nil
}
