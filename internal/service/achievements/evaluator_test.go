package achievements

import (
	"encoding/json"
	"testing"
)

func TestEvaluateCriteria_Operators(t *testing.T) {
	stats := map[string]float64{
		"steps":  8000,
		"level":  10,
		"streak": 7,
	}

	tests := []struct {
		name     string
		criteria string
		expected bool
	}{
		{"gte met", `{"target":"level","operator":">=","value":10}`, true},
		{"gte not met", `{"target":"level","operator":">=","value":11}`, false},
		{"gt met", `{"target":"steps","operator":">","value":7999}`, true},
		{"gt equal not met", `{"target":"steps","operator":">","value":8000}`, false},
		{"eq met", `{"target":"streak","operator":"=","value":7}`, true},
		{"double eq met", `{"target":"streak","operator":"==","value":7}`, true},
		{"eq not met", `{"target":"streak","operator":"=","value":8}`, false},
		{"lt met", `{"target":"streak","operator":"<","value":8}`, true},
		{"lte met", `{"target":"streak","operator":"<=","value":7}`, true},
		{"lte not met", `{"target":"streak","operator":"<=","value":6}`, false},
		{"in met", `{"target":"level","operator":"in","value":[5,10,15]}`, true},
		{"in not met", `{"target":"level","operator":"in","value":[5,15]}`, false},
		{"between met low bound", `{"target":"streak","operator":"between","value":[7,14]}`, true},
		{"between met high bound", `{"target":"streak","operator":"between","value":[1,7]}`, true},
		{"between not met", `{"target":"streak","operator":"between","value":[8,14]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluateCriteria(json.RawMessage(tt.criteria), stats)
			if result != tt.expected {
				t.Errorf("Expected %v for criteria %s, got %v", tt.expected, tt.criteria, result)
			}
		})
	}
}

func TestEvaluateCriteria_MissingStat(t *testing.T) {
	stats := map[string]float64{"steps": 5000}

	criteria := json.RawMessage(`{"target":"water","operator":">=","value":8}`)
	if evaluateCriteria(criteria, stats) {
		t.Error("Expected criteria with undefined stat to evaluate false")
	}
}

func TestEvaluateCriteria_Malformed(t *testing.T) {
	stats := map[string]float64{"steps": 5000}

	tests := []struct {
		name     string
		criteria string
	}{
		{"empty", ``},
		{"invalid json", `{not json`},
		{"no target", `{"operator":">=","value":1}`},
		{"unknown operator", `{"target":"steps","operator":"~","value":1}`},
		{"string threshold", `{"target":"steps","operator":">=","value":"many"}`},
		{"in with scalar", `{"target":"steps","operator":"in","value":5000}`},
		{"between wrong arity", `{"target":"steps","operator":"between","value":[1]}`},
		{"between non-numeric", `{"target":"steps","operator":"between","value":["a","b"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Malformed criteria never panic or error, they just do not match.
			if evaluateCriteria(json.RawMessage(tt.criteria), stats) {
				t.Errorf("Expected malformed criteria %q to evaluate false", tt.criteria)
			}
		})
	}
}
