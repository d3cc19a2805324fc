package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	// decimalPattern matches the first unsigned decimal such as "4" or "0.75".
	decimalPattern = regexp.MustCompile(`[0-9]+(\.[0-9]+)?`)
	// integerPattern matches the first optionally negative integer.
	integerPattern = regexp.MustCompile(`-?\d+`)
	// fencePattern captures the body of a ```json ... ``` block.
	fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

// JSONAs decodes content into T. Models and hand-edited files often produce
// almost-JSON, so on failure the content is unwrapped from markdown fences,
// repaired with jsonrepair and decoded again.
//
//	type Example struct {
//	    Text string `json:"text"`
//	}
//
//	example, err := JSONAs[Example](`{text: 'single quotes', }`)
func JSONAs[T any](content string) (T, error) {
	var result T

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	candidate := strings.TrimSpace(content)
	if match := fencePattern.FindStringSubmatch(candidate); match != nil {
		candidate = strings.TrimSpace(match[1])
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	var repairedResult T
	if err := json.Unmarshal([]byte(repaired), &repairedResult); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}
	return repairedResult, nil
}

// FirstDecimal returns the first unsigned decimal number in text.
func FirstDecimal(text string) (float64, bool) {
	match := decimalPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// FirstInt returns the first integer in text, sign included.
func FirstInt(text string) (int, bool) {
	match := integerPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return value, true
}
