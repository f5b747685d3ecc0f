// Package configstruct fills option structs such as adb.Options from
// a configmap.Getter
package configstruct

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host/config/configmap"
)

// setter is implemented by option types with their own syntax, such
// as host.Duration
type setter interface {
	Set(string) error
}

// Name returns the config key of a struct field: the "config" tag if
// present, otherwise the field name in snake_case with initialisms
// kept together, so ADBPath is adb_path.
func Name(field reflect.StructField) string {
	if name, ok := field.Tag.Lookup("config"); ok {
		return name
	}
	runes := []rune(field.Name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			wordStart := i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1])))
			if wordStart {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Names returns the config keys of opt in field order
func Names(opt interface{}) ([]string, error) {
	v, err := structValue(opt)
	if err != nil {
		return nil, err
	}
	names := make([]string, v.NumField())
	for i := range names {
		names[i] = Name(v.Type().Field(i))
	}
	return names, nil
}

func structValue(opt interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(opt)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return v, errors.New("argument must be a pointer")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return v, errors.New("argument must be a pointer to a struct")
	}
	return v, nil
}

// Parse sets field from in according to its type. Strings are taken
// as they are, numbers and bools are trimmed first.
func Parse(field reflect.Value, in string) error {
	if s, ok := field.Addr().Interface().(setter); ok {
		return s.Set(strings.TrimSpace(in))
	}
	trimmed := strings.TrimSpace(in)
	switch field.Kind() {
	case reflect.String:
		field.SetString(in)
	case reflect.Bool:
		b, err := strconv.ParseBool(trimmed)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(trimmed, 0, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(trimmed, 0, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	default:
		return errors.Errorf("unsupported option type %v", field.Type())
	}
	return nil
}

// Set overwrites each field of opt whose key config has. Fields
// config doesn't have keep their value, as do non string fields
// given "".
func Set(config configmap.Getter, opt interface{}) error {
	v, err := structValue(opt)
	if err != nil {
		return err
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		name := Name(v.Type().Field(i))
		in, ok := config.Get(name)
		if !ok || (in == "" && field.Kind() != reflect.String) {
			continue
		}
		if err := Parse(field, in); err != nil {
			return errors.Wrapf(err, "couldn't parse config item %q = %q as %v", name, in, field.Type())
		}
	}
	return nil
}
