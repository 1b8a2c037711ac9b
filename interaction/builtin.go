package interaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hagay3/baker/errors"
)

// Built-in configuration identifiers. They resolve through the same table
// as user-registered configurations.
const (
	BuiltinCore      = "core.basic"
	BuiltinTransform = "core.transform"
)

// RegisterBuiltins installs the built-in handler configurations into the
// provider table. Callers register their own configurations alongside these
// before discovery runs.
func RegisterBuiltins(provider *TableProvider) error {
	if provider == nil {
		return errors.WrapFatal(
			errors.ErrInvalidConfig, "Interaction", "RegisterBuiltins", "provider validation")
	}

	if err := provider.Register(BuiltinCore, coreHandlers); err != nil {
		return errors.Wrap(err, "Interaction", "RegisterBuiltins", "core configuration registration")
	}

	if err := provider.Register(BuiltinTransform, transformHandlers); err != nil {
		return errors.Wrap(err, "Interaction", "RegisterBuiltins", "transform configuration registration")
	}

	return nil
}

// coreHandlers builds the general-purpose handlers: echo, delay and uuid.
func coreHandlers(_ context.Context) ([]Handler, error) {
	echo := NewFunc("echo", Signature{Input: "object", Output: "object"},
		func(_ context.Context, input map[string]any) (map[string]any, error) {
			return input, nil
		})

	delay := NewFunc("delay", Signature{Input: "object", Output: "object"},
		func(ctx context.Context, input map[string]any) (map[string]any, error) {
			duration, err := delayDuration(input)
			if err != nil {
				return nil, err
			}

			timer := time.NewTimer(duration)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}

			return input, nil
		})

	newUUID := NewFunc("uuid", Signature{Input: "empty", Output: "object"},
		func(_ context.Context, _ map[string]any) (map[string]any, error) {
			return map[string]any{"uuid": uuid.NewString()}, nil
		})

	return []Handler{echo, delay, newUUID}, nil
}

// delayDuration reads the "duration" key, accepting a Go duration string or
// a number of milliseconds.
func delayDuration(input map[string]any) (time.Duration, error) {
	raw, ok := input["duration"]
	if !ok {
		return 0, fmt.Errorf("delay requires a 'duration' value")
	}

	switch v := raw.(type) {
	case string:
		duration, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration '%s': %w", v, err)
		}
		return duration, nil
	case float64:
		return time.Duration(v) * time.Millisecond, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("duration must be a string or a number of milliseconds")
	}
}

// transformHandlers builds the payload transformation handlers: filter and
// map. Both take the working payload under the "data" key and return the
// result under the same key.
func transformHandlers(_ context.Context) ([]Handler, error) {
	filter := NewFunc("filter", Signature{Input: "object", Output: "object"},
		func(_ context.Context, input map[string]any) (map[string]any, error) {
			data := dataField(input)

			rules, err := parseFilterRules(input)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"data":    data,
				"matched": matchesRules(data, rules),
			}, nil
		})

	mapper := NewFunc("map", Signature{Input: "object", Output: "object"},
		func(_ context.Context, input map[string]any) (map[string]any, error) {
			data := dataField(input)

			mappings, err := parseFieldMappings(input)
			if err != nil {
				return nil, err
			}

			removals, err := parseRemoveFields(input)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"data": transformData(data, mappings, removals),
			}, nil
		})

	return []Handler{filter, mapper}, nil
}

// filterRule defines a single filter condition over the working payload.
type filterRule struct {
	Field    string
	Operator string
	Value    any
}

// fieldMapping defines a single field rename with an optional string
// transform (copy, uppercase, lowercase, trim).
type fieldMapping struct {
	SourceField string
	TargetField string
	Transform   string
}

func dataField(input map[string]any) map[string]any {
	if data, ok := input["data"].(map[string]any); ok {
		return data
	}
	return map[string]any{}
}

func parseFilterRules(input map[string]any) ([]filterRule, error) {
	raw, ok := input["rules"]
	if !ok {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("rules must be an array")
	}

	rules := make([]filterRule, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("rule %d must be an object", i)
		}

		rule := filterRule{
			Field:    stringValue(fields["field"]),
			Operator: stringValue(fields["operator"]),
			Value:    fields["value"],
		}
		if rule.Field == "" || rule.Operator == "" {
			return nil, fmt.Errorf("rule %d requires 'field' and 'operator'", i)
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

func parseFieldMappings(input map[string]any) ([]fieldMapping, error) {
	raw, ok := input["mappings"]
	if !ok {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("mappings must be an array")
	}

	mappings := make([]fieldMapping, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("mapping %d must be an object", i)
		}

		mapping := fieldMapping{
			SourceField: stringValue(fields["source_field"]),
			TargetField: stringValue(fields["target_field"]),
			Transform:   stringValue(fields["transform"]),
		}
		if mapping.SourceField == "" || mapping.TargetField == "" {
			return nil, fmt.Errorf("mapping %d requires 'source_field' and 'target_field'", i)
		}

		mappings = append(mappings, mapping)
	}

	return mappings, nil
}

func parseRemoveFields(input map[string]any) ([]string, error) {
	raw, ok := input["remove_fields"]
	if !ok {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("remove_fields must be an array")
	}

	removals := make([]string, 0, len(items))
	for i, item := range items {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("remove_fields entry %d must be a string", i)
		}
		removals = append(removals, name)
	}

	return removals, nil
}

// matchesRules checks data against all rules with AND logic. No rules means
// everything matches.
func matchesRules(data map[string]any, rules []filterRule) bool {
	for _, rule := range rules {
		if !matchesRule(data, rule) {
			return false
		}
	}
	return true
}

func matchesRule(data map[string]any, rule filterRule) bool {
	value := nestedField(data, rule.Field)
	if value == nil {
		return false
	}

	switch rule.Operator {
	case "eq":
		return fmt.Sprint(value) == fmt.Sprint(rule.Value)
	case "ne":
		return fmt.Sprint(value) != fmt.Sprint(rule.Value)
	case "gt":
		return compareNumbers(value, rule.Value) > 0
	case "gte":
		return compareNumbers(value, rule.Value) >= 0
	case "lt":
		return compareNumbers(value, rule.Value) < 0
	case "lte":
		return compareNumbers(value, rule.Value) <= 0
	case "contains":
		return strings.Contains(fmt.Sprint(value), fmt.Sprint(rule.Value))
	default:
		return false
	}
}

// transformData applies field mappings to a copy of data, then removes the
// listed fields. The input map is never mutated.
func transformData(data map[string]any, mappings []fieldMapping, removals []string) map[string]any {
	result := make(map[string]any, len(data))
	for key, value := range data {
		result[key] = value
	}

	for _, mapping := range mappings {
		value := nestedField(data, mapping.SourceField)
		if value == nil {
			continue
		}
		result[mapping.TargetField] = applyTransform(value, mapping.Transform)
	}

	for _, field := range removals {
		delete(result, field)
	}

	return result
}

func applyTransform(value any, transform string) any {
	text, isString := value.(string)
	if !isString {
		return value
	}

	switch transform {
	case "uppercase":
		return strings.ToUpper(text)
	case "lowercase":
		return strings.ToLower(text)
	case "trim":
		return strings.TrimSpace(text)
	default:
		return text
	}
}

// nestedField retrieves a field value, supporting dot notation for nested
// objects ("position.lat").
func nestedField(data map[string]any, field string) any {
	if value, ok := data[field]; ok {
		return value
	}

	parts := strings.Split(field, ".")
	if len(parts) < 2 {
		return nil
	}

	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}

	return current[parts[len(parts)-1]]
}

func compareNumbers(a, b any) int {
	aNum := toFloat64(a)
	bNum := toFloat64(b)

	switch {
	case aNum < bNum:
		return -1
	case aNum > bNum:
		return 1
	default:
		return 0
	}
}

func toFloat64(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	default:
		return 0
	}
}

func stringValue(value any) string {
	text, _ := value.(string)
	return text
}
