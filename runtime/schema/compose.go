package schema

import "sort"

// OneOf composes a schema that accepts exactly one of the object schemas in
// options. Each option is extended with a property named key, that must equal
// the name the option is given under.
//
// Option schemas are expected to declare additionalProperties: false, and
// must not define a property named key. Without options nothing is accepted.
func OneOf(key string, options map[string]map[string]interface{}) []interface{} {
	if len(options) == 0 {
		return []interface{}{map[string]interface{}{"not": map[string]interface{}{}}}
	}
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]interface{}, 0, len(options))
	for _, name := range names {
		s := options[name]
		option := make(map[string]interface{}, len(s)+2)
		for k, v := range s {
			option[k] = v
		}
		properties := map[string]interface{}{
			key: map[string]interface{}{"const": name},
		}
		if props, ok := s["properties"].(map[string]interface{}); ok {
			for k, v := range props {
				properties[k] = v
			}
		}
		option["properties"] = properties
		required := []interface{}{key}
		switch req := s["required"].(type) {
		case []interface{}:
			required = append(required, req...)
		case []string:
			for _, r := range req {
				required = append(required, r)
			}
		}
		option["required"] = required
		result = append(result, option)
	}
	return result
}

// Without returns a shallow copy of value without key, if value is an object.
func Without(value interface{}, key string) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != key {
			c[k] = v
		}
	}
	return c
}
