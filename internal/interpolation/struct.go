package interpolation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TagName marks fields for interpolation: `env_interpolation:"yes"`.
const TagName = "env_interpolation"

// InterpolateStruct expands environment references in the tagged fields of
// the struct v points to. Tagged strings, string slices and string maps are
// expanded; nested structs, struct pointers and slices of structs are
// walked whether or not they are tagged. Every failure is reported.
func InterpolateStruct(v any) error {
	if v == nil {
		return nil
	}
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct or pointer to struct, got %T", v)
	}
	if !val.CanAddr() {
		return fmt.Errorf("cannot interpolate non-addressable %T, pass a pointer", v)
	}
	return errors.Join(walkStruct(val, "")...)
}

func walkStruct(val reflect.Value, prefix string) []error {
	var errs []error
	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		info := typ.Field(i)
		if !field.CanSet() {
			continue
		}
		path := prefix + info.Name
		tagged := strings.EqualFold(info.Tag.Get(TagName), "yes")
		errs = append(errs, walkField(field, path, tagged)...)
	}
	return errs
}

func walkField(field reflect.Value, path string, tagged bool) []error {
	switch field.Kind() {
	case reflect.String:
		if tagged {
			return expandInto(field, path)
		}
	case reflect.Struct:
		return walkStruct(field, path+".")
	case reflect.Ptr:
		if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
			return walkStruct(field.Elem(), path+".")
		}
	case reflect.Slice:
		var errs []error
		for j := range field.Len() {
			errs = append(errs, walkField(field.Index(j), fmt.Sprintf("%s[%d]", path, j), tagged)...)
		}
		return errs
	case reflect.Map:
		if !tagged || field.IsNil() || field.Type().Key().Kind() != reflect.String ||
			field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		var errs []error
		for _, key := range field.MapKeys() {
			expanded, err := ExpandEnvVars(field.MapIndex(key).String())
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s[%s]: %w", path, key.String(), err))
				continue
			}
			field.SetMapIndex(key, reflect.ValueOf(expanded).Convert(field.Type().Elem()))
		}
		return errs
	}
	return nil
}

func expandInto(field reflect.Value, path string) []error {
	if field.String() == "" {
		return nil
	}
	expanded, err := ExpandEnvVars(field.String())
	if err != nil {
		return []error{fmt.Errorf("field %s: %w", path, err)}
	}
	field.SetString(expanded)
	return nil
}
