package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Pre-compiled extraction patterns. Compiling on every response would be
// an order of magnitude slower than reusing these.
var (
	// Fenced block tagged json/JSON at the start of the text, trailing
	// newline optional
	jsonFenceRegex = regexp.MustCompile("(?s)^```(?:json|JSON)\\s*\\n?(.*?)\\n?```")

	// Untagged fenced block at the start of the text
	plainFenceRegex = regexp.MustCompile("(?s)^```\\s*\\n?(.*?)\\n?```")

	// Any fenced block anywhere in the text
	anyFenceRegex = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)\\n?```")

	// Greedy object/array spans for mixed prose responses
	objectSpanRegex = regexp.MustCompile(`(?s)\{.*\}`)
	arraySpanRegex  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractJSON pulls a JSON document out of free-form model output.
//
// Stages, applied in order until one changes the text:
//  1. Strip a leading ```json fenced block.
//  2. Strip a leading untagged fenced block.
//  3. Take the contents of any fenced block found anywhere in the text.
//  4. If the text still does not start with '{' or '[', take the first
//     greedy {...} or [...] span.
//  5. Trim trailing prose after the final '}' or ']'.
//
// The result is not guaranteed to parse; callers must still unmarshal it.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)

	if m := jsonFenceRegex.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	} else if m := plainFenceRegex.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	} else if m := anyFenceRegex.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	if len(s) > 0 && s[0] != '{' && s[0] != '[' {
		// Take whichever span opens first so an object nested inside an
		// array doesn't shadow the array itself.
		objIdx := strings.IndexByte(s, '{')
		arrIdx := strings.IndexByte(s, '[')
		if arrIdx >= 0 && (objIdx < 0 || arrIdx < objIdx) {
			if m := arraySpanRegex.FindString(s); m != "" {
				s = m
			}
		} else if m := objectSpanRegex.FindString(s); m != "" {
			s = m
		} else if m := arraySpanRegex.FindString(s); m != "" {
			s = m
		}
	}

	return trimAfterJSON(s)
}

// trimAfterJSON drops anything after the last closing brace or bracket.
func trimAfterJSON(s string) string {
	last := strings.LastIndexAny(s, "}]")
	if last >= 0 && last < len(s)-1 {
		s = s[:last+1]
	}
	return strings.TrimSpace(s)
}

// ParseJSON extracts and unmarshals a JSON value of type T from raw model
// output. On failure it returns a *JSONError carrying truncated previews of
// both the raw and extracted text for diagnostics.
func ParseJSON[T any](text string) (T, error) {
	var result T

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return result, &JSONError{Raw: text}
	}

	// Fast path: the model followed instructions
	if err := json.Unmarshal([]byte(trimmed), &result); err == nil {
		return result, nil
	}

	extracted := ExtractJSON(trimmed)
	if extracted != "" {
		if err := json.Unmarshal([]byte(extracted), &result); err == nil {
			return result, nil
		}
	}

	var zero T
	return zero, &JSONError{Raw: text, Extracted: extracted}
}

// JSONError reports a model response that could not be parsed as JSON even
// after extraction. Raw and Extracted are truncated to 1000 characters.
type JSONError struct {
	Raw       string
	Extracted string
}

func (e *JSONError) Error() string {
	return fmt.Sprintf("invalid JSON response (raw: %q, extracted: %q)",
		truncate(e.Raw, 1000), truncate(e.Extracted, 1000))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
