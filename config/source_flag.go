package config

import (
	"fmt"
	"reflect"
	"strings"
)

// FlagSource exposes non-zero fields of a flags struct under the keys
// named by their `config` tag, e.g. `config:"server.addr"`.
type FlagSource struct {
	flags    interface{}
	priority int
}

func NewFlagSource(flags interface{}, priority int) *FlagSource {
	return &FlagSource{flags: flags, priority: priority}
}

func (s *FlagSource) Name() string { return "flags" }

func (s *FlagSource) Priority() int { return s.priority }

func (s *FlagSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if s.flags == nil {
		return result, nil
	}

	v := reflect.ValueOf(s.flags)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return result, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("flags must be a struct or pointer to struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("config")
		if !field.CanInterface() || tag == "" || tag == "-" || field.IsZero() {
			continue
		}
		for _, key := range strings.Split(tag, ",") {
			if key = strings.TrimSpace(key); key != "" {
				result[key] = field.Interface()
			}
		}
	}
	return result, nil
}
