package cf

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"sort"
	"strings"
)

// Load binds the values in data onto the exported fields of the struct pointed to by cf. Keys
// are field names, or the value of a `cf` tag when present. Missing keys leave fields untouched.
func Load(data map[string]interface{}, cf interface{}) error {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return errors.Errorf("cf type [%s] not struct", cfV.Type())
	}
	for i := 0; i < cfV.NumField(); i++ {
		if !cfV.Field(i).CanInterface() {
			continue
		}
		key := keyName(cfV.Type().Field(i))
		v, found := data[key]
		if !found || !cfV.Field(i).CanSet() {
			continue
		}
		switch cfV.Field(i).Interface().(type) {
		case int:
			if j, ok := v.(int); ok {
				cfV.Field(i).SetInt(int64(j))
			} else {
				return typeMismatch(key, v, cfV.Field(i))
			}

		case float64:
			switch f := v.(type) {
			case float64:
				cfV.Field(i).SetFloat(f)
			case int:
				cfV.Field(i).SetFloat(float64(f))
			default:
				return typeMismatch(key, v, cfV.Field(i))
			}

		case bool:
			if b, ok := v.(bool); ok {
				cfV.Field(i).SetBool(b)
			} else {
				return typeMismatch(key, v, cfV.Field(i))
			}

		case string:
			if s, ok := v.(string); ok {
				cfV.Field(i).SetString(s)
			} else {
				return typeMismatch(key, v, cfV.Field(i))
			}

		case map[string]interface{}:
			switch m := v.(type) {
			case map[string]interface{}:
				cfV.Field(i).Set(reflect.ValueOf(m))
			case map[interface{}]interface{}:
				cfV.Field(i).Set(reflect.ValueOf(MapIToMapS(m)))
			default:
				return typeMismatch(key, v, cfV.Field(i))
			}

		default:
			return errors.Errorf("unsupported field type [%s]", cfV.Field(i).Type())
		}
	}
	return nil
}

func typeMismatch(key string, v interface{}, field reflect.Value) error {
	return errors.Errorf("field '%s' type mismatch, got [%s], expected [%s]", key, reflect.TypeOf(v), field.Type())
}

func Dump(label string, cf interface{}) string {
	cfV := reflect.ValueOf(cf)
	if cfV.Kind() == reflect.Ptr {
		cfV = cfV.Elem()
	}
	if cfV.Kind() != reflect.Struct {
		return ""
	}
	out := label + " {\n"
	format := fmt.Sprintf("\t%%-%ds %%v\n", maxKeyLength(cfV))
	for i := 0; i < cfV.NumField(); i++ {
		if cfV.Field(i).CanInterface() {
			key := keyName(cfV.Type().Field(i))
			out += fmt.Sprintf(format, key, dumpValue(cfV.Field(i).Interface()))
		}
	}
	out += "}\n"
	return out
}

func dumpValue(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func keyName(v reflect.StructField) string {
	key := v.Name
	tag := v.Tag.Get("cf")
	if tag != "" {
		key = tag
	}
	return key
}

func maxKeyLength(cfV reflect.Value) int {
	maxKeyLength := 0
	for i := 0; i < cfV.NumField(); i++ {
		if !cfV.Field(i).CanInterface() {
			continue
		}
		key := keyName(cfV.Type().Field(i))
		keyLength := len(key)
		if keyLength > maxKeyLength {
			maxKeyLength = keyLength
		}
	}
	return maxKeyLength
}
