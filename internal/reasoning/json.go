package reasoning

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// trailingCommaRegex fixes ",}" and ",]", the most common model output slip.
var trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)

// decodeResponse extracts the first JSON value from a model response and
// unmarshals it. Markdown fences and trailing prose are tolerated; trailing
// commas and truncated structures get one repair attempt.
func decodeResponse[T any](response string) (T, error) {
	var result T

	cleaned := stripFences(response)
	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return result, fmt.Errorf("no JSON found in response")
	}
	jsonPart := cleaned[idx:]

	dec := json.NewDecoder(strings.NewReader(jsonPart))
	if err := dec.Decode(&result); err == nil {
		return result, nil
	}

	repaired := closeTruncated(trailingCommaRegex.ReplaceAllString(jsonPart, `$1`))
	dec = json.NewDecoder(strings.NewReader(repaired))
	if err := dec.Decode(&result); err != nil {
		return result, fmt.Errorf("parse JSON: %w", err)
	}
	return result, nil
}

func stripFences(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// closeTruncated balances quotes, brackets, and braces on responses the model
// cut off mid-structure.
func closeTruncated(input string) string {
	inString := false
	for i := 0; i < len(input); i++ {
		switch input[i] {
		case '\\':
			i++ // skip the escaped byte
		case '"':
			inString = !inString
		}
	}
	if inString {
		input += `"`
	}

	for i := strings.Count(input, "[") - strings.Count(input, "]"); i > 0; i-- {
		input += "]"
	}
	for i := strings.Count(input, "{") - strings.Count(input, "}"); i > 0; i-- {
		input += "}"
	}
	return input
}
