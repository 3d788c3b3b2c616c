package achievements

import (
	"encoding/json"

	"github.com/dileepadari/wellnesshub/internal/models"
)

// evaluateCriteria checks a declarative unlock rule against a stats snapshot.
// Malformed criteria and missing stats evaluate to false, never to an error:
// a rule that cannot be interpreted simply does not match.
func evaluateCriteria(raw json.RawMessage, stats map[string]float64) bool {
	if len(raw) == 0 {
		return false
	}

	var criteria models.AchievementCriteria
	if err := json.Unmarshal(raw, &criteria); err != nil {
		return false
	}
	if criteria.Target == "" {
		return false
	}

	value, ok := stats[criteria.Target]
	if !ok {
		return false
	}

	switch criteria.Operator {
	case ">=":
		threshold, ok := toFloat(criteria.Value)
		return ok && value >= threshold
	case ">":
		threshold, ok := toFloat(criteria.Value)
		return ok && value > threshold
	case "=", "==":
		threshold, ok := toFloat(criteria.Value)
		return ok && value == threshold
	case "<":
		threshold, ok := toFloat(criteria.Value)
		return ok && value < threshold
	case "<=":
		threshold, ok := toFloat(criteria.Value)
		return ok && value <= threshold
	case "in":
		return evaluateIn(criteria.Value, value)
	case "between":
		return evaluateBetween(criteria.Value, value)
	default:
		return false
	}
}

// evaluateIn expects the criteria value to be an array containing the stat.
func evaluateIn(criteriaValue interface{}, value float64) bool {
	values, ok := criteriaValue.([]interface{})
	if !ok {
		return false
	}
	for _, candidate := range values {
		if v, ok := toFloat(candidate); ok && v == value {
			return true
		}
	}
	return false
}

// evaluateBetween expects a 2-element array and checks the inclusive range.
func evaluateBetween(criteriaValue interface{}, value float64) bool {
	bounds, ok := criteriaValue.([]interface{})
	if !ok || len(bounds) != 2 {
		return false
	}
	low, okLow := toFloat(bounds[0])
	high, okHigh := toFloat(bounds[1])
	if !okLow || !okHigh {
		return false
	}
	return value >= low && value <= high
}

// toFloat normalizes JSON numbers. JSON unmarshals numbers as float64; int is
// accepted for criteria built in code.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
