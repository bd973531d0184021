// Package cvrcheck validates raw company payloads from the Danish business
// registry before they are stored or fed to the timeline engine.
package cvrcheck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Checker handles validation of raw registry payloads.
type Checker struct{}

// NewChecker creates a new payload checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Issue describes one problem found in a payload.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Result represents the outcome of checking one payload.
type Result struct {
	IsValid  bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (r *Result) addError(field, message string, value any) {
	r.IsValid = false
	r.Errors = append(r.Errors, Issue{Field: field, Message: message, Value: value})
}

func (r *Result) addWarning(field, message string, value any) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Message: message, Value: value})
}

// CheckRaw decodes and checks a JSON payload. Invalid JSON produces a single
// error on the payload itself.
func (c *Checker) CheckRaw(payload []byte) Result {
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		result := Result{IsValid: true, Errors: []Issue{}, Warnings: []Issue{}}
		result.addError("payload", fmt.Sprintf("payload is not valid json: %v", err), nil)
		return result
	}
	return c.Check(decoded)
}

// Check validates a decoded payload. Errors mark the payload unusable;
// warnings flag data the timeline can work around.
func (c *Checker) Check(payload map[string]any) Result {
	result := Result{IsValid: true, Errors: []Issue{}, Warnings: []Issue{}}

	cvrNumber, ok := numericField(payload["cvrNummer"])
	if !ok {
		result.addError("cvrNummer", "cvrNummer is missing or not numeric", payload["cvrNummer"])
	} else if cvrNumber < 10000000 || cvrNumber > 99999999 {
		result.addError("cvrNummer", fmt.Sprintf("cvrNummer %d is not an 8 digit number", cvrNumber), cvrNumber)
	}

	names, ok := payload["navne"].([]any)
	if !ok || len(names) == 0 {
		result.addError("navne", "payload has no name records", nil)
	} else {
		for idx, raw := range names {
			record, ok := raw.(map[string]any)
			if !ok {
				result.addWarning("navne", fmt.Sprintf("name record %d is not an object", idx), raw)
				continue
			}
			name, _ := record["navn"].(string)
			if strings.TrimSpace(name) == "" {
				result.addWarning("navne", fmt.Sprintf("name record %d has an empty navn", idx), nil)
			}
			checkPeriod(&result, fmt.Sprintf("navne[%d].periode", idx), record["periode"])
		}
	}

	for _, field := range []string{"beliggenhedsadresse", "virksomhedsstatus", "virksomhedsform", "hovedbranche", "kapitalforhold", "deltagerRelation"} {
		if raw, present := payload[field]; present {
			if _, ok := raw.([]any); !ok && raw != nil {
				result.addWarning(field, fmt.Sprintf("%s is not an array and will be ignored", field), nil)
			}
		}
	}

	return result
}

func checkPeriod(result *Result, field string, raw any) {
	if raw == nil {
		result.addWarning(field, "record has no validity period", nil)
		return
	}
	period, ok := raw.(map[string]any)
	if !ok {
		result.addWarning(field, "periode is not an object", raw)
		return
	}
	for _, key := range []string{"gyldigFra", "gyldigTil"} {
		value, present := period[key]
		if !present || value == nil {
			continue
		}
		if _, ok := value.(string); !ok {
			result.addWarning(field, fmt.Sprintf("%s is not a string date", key), value)
		}
	}
}

func numericField(raw any) (int64, bool) {
	switch value := raw.(type) {
	case float64:
		return int64(value), true
	case json.Number:
		parsed, err := value.Int64()
		return parsed, err == nil
	case string:
		var parsed int64
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &parsed); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
