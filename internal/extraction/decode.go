// Package extraction turns inference-service completions into structured
// intent records. Models wrap JSON in markdown fences, leak control
// characters, and emit trailing commas; DecodeContract repairs what it can
// and reports a ParseError for the rest. Extraction failures are recoverable:
// callers collapse them to the false-flag record and move on to the next
// intent in priority order.
package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError reports a completion that could not be decoded against its
// contract. Raw keeps the original text so the failure stays observable in
// logs even though it never reaches the user.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode extraction contract: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	fencedBlock   = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*}`)
	controlChars  = strings.NewReplacer("\n", "", "\r", "", "\t", "")
)

// DecodeContract extracts the JSON payload from a completion and decodes it
// into v. It prefers the contents of a fenced block when one is present. The
// payload is first decoded as-is; only when that fails are the repairs
// applied (strip newline/carriage-return/tab characters, drop a dangling
// trailing comma before a closing brace), so valid JSON whose string values
// happen to contain those sequences is never rewritten.
func DecodeContract(raw string, v any) error {
	payload := raw
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		payload = m[1]
	}

	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return nil
	}

	repaired := controlChars.Replace(payload)
	repaired = trailingComma.ReplaceAllString(repaired, "}")

	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}
