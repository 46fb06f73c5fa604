package config

import (
	"strconv"

	"github.com/pkg/errors"
)

// ReplaceObjects walks config and substitutes every object that has a string
// property named '$' + key with the value returned by replacement(obj).
// Replacement values are not walked again.
//
// Errors from replacement are wrapped with the path of the object, such as
// 'agents[1].usageLimit'.
func ReplaceObjects(
	config map[string]interface{},
	key string,
	replacement func(obj map[string]interface{}) (interface{}, error),
) error {
	r := replacer{marker: "$" + key, replace: replacement}
	_, err := r.walk("", config)
	return err
}

type replacer struct {
	marker  string
	replace func(obj map[string]interface{}) (interface{}, error)
}

func (r replacer) walk(path string, val interface{}) (interface{}, error) {
	switch val := val.(type) {
	case map[string]interface{}:
		if _, ok := val[r.marker].(string); ok {
			result, err := r.replace(val)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to replace '%s' at '%s'", r.marker, path)
			}
			return result, nil
		}
		for k, v := range val {
			sub := k
			if path != "" {
				sub = path + "." + k
			}
			v, err := r.walk(sub, v)
			if err != nil {
				return nil, err
			}
			val[k] = v
		}
	case []interface{}:
		for i, v := range val {
			v, err := r.walk(path+"["+strconv.Itoa(i)+"]", v)
			if err != nil {
				return nil, err
			}
			val[i] = v
		}
	}
	return val, nil
}
