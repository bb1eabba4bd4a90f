package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flowmesh/flowmesh/internal/models"
)

// ErrUnknownOperator is returned for operators outside the supported set.
// Unlike integration failures this aborts the whole execution.
var ErrUnknownOperator = errors.New("unknown operator")

// Evaluator handles predicate evaluation against execution context data.
type Evaluator struct{}

// NewEvaluator creates a new predicate evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate evaluates a (field, operator, value) predicate against the
// context. A field absent from the context yields false, not an error.
func (e *Evaluator) Evaluate(pred *models.Predicate, execContext map[string]interface{}) (bool, error) {
	if pred == nil {
		return true, nil
	}

	fieldValue, found := e.fieldValue(pred.Field, execContext)
	if !found {
		return false, nil
	}

	switch pred.Operator {
	case "equals":
		return e.equals(fieldValue, pred.Value), nil

	case "contains":
		return e.contains(fieldValue, pred.Value), nil

	case "greater_than":
		return e.greaterThan(fieldValue, pred.Value), nil

	case "less_than":
		return e.lessThan(fieldValue, pred.Value), nil

	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownOperator, pred.Operator)
	}
}

// fieldValue extracts a field value from context using dot notation.
// Example: "order.total" retrieves context["order"]["total"].
func (e *Evaluator) fieldValue(field string, execContext map[string]interface{}) (interface{}, bool) {
	parts := strings.Split(field, ".")
	current := execContext

	for i, part := range parts {
		val, exists := current[part]
		if !exists {
			return nil, false
		}

		if i == len(parts)-1 {
			return val, true
		}

		nextMap, ok := val.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = nextMap
	}

	return nil, false
}

// equals compares via string rendering so numeric types with equal values
// match regardless of their concrete Go type.
func (e *Evaluator) equals(a, b interface{}) bool {
	aFloat, aOk := toFloat64(a)
	bFloat, bOk := toFloat64(b)
	if aOk && bOk {
		return aFloat == bFloat
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// contains checks substring membership for strings and item membership for
// lists.
func (e *Evaluator) contains(haystack, needle interface{}) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, fmt.Sprintf("%v", needle))
	case []interface{}:
		for _, item := range h {
			if e.equals(item, needle) {
				return true
			}
		}
		return false
	case []string:
		needleStr := fmt.Sprintf("%v", needle)
		for _, item := range h {
			if item == needleStr {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (e *Evaluator) greaterThan(a, b interface{}) bool {
	aFloat, aOk := toFloat64(a)
	bFloat, bOk := toFloat64(b)
	if !aOk || !bOk {
		return false
	}
	return aFloat > bFloat
}

func (e *Evaluator) lessThan(a, b interface{}) bool {
	aFloat, aOk := toFloat64(a)
	bFloat, bOk := toFloat64(b)
	if !aOk || !bOk {
		return false
	}
	return aFloat < bFloat
}

// toFloat64 converts various numeric types to float64
func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
