package render

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/iancoleman/strcase"
)

// Field returns the field of obj identified by name.
//
// Maps are indexed by name. Ordered maps ([yaml.MapSlice]) are searched for
// an item whose key formats as name. Struct fields match by exact name, by
// json tag, or by the camel-case form of name, so "first_name" finds
// FirstName. Otherwise a method with no arguments and one result (or a
// result and an error) named name, or its camel-case form, is called.
// Pointers and interfaces are followed.
func Field(obj any, name string) (any, error) {
	if ms, ok := obj.(yaml.MapSlice); ok {
		for _, item := range ms {
			if fmt.Sprint(item.Key) == name {
				return item.Value, nil
			}
		}

		return nil, missing(obj, name)
	}

	if obj == nil {
		return nil, missing(obj, name)
	}

	if v, ok, err := method(reflect.ValueOf(obj), name); ok {
		return v, err
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, missing(obj, name)
		}

		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}

		e := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if e.IsValid() {
			return e.Interface(), nil
		}

	case reflect.Struct:
		if f, ok := structField(v, name); ok {
			return f.Interface(), nil
		}
	}

	return nil, missing(obj, name)
}

func missing(obj any, name string) error {
	return ErrField.Wrap(fmt.Errorf("%q in %T", name, obj))
}

// structField finds the exported field of struct v matching name.
func structField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	camel := strcase.ToCamel(name)

	byTag, byCamel := -1, -1

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		if sf.Name == name {
			return v.Field(i), true
		}

		if tag, _, _ := strings.Cut(sf.Tag.Get("json"), ","); tag == name && byTag < 0 {
			byTag = i
		}

		if sf.Name == camel && byCamel < 0 {
			byCamel = i
		}
	}

	switch {
	case byTag >= 0:
		return v.Field(byTag), true
	case byCamel >= 0:
		return v.Field(byCamel), true
	default:
		return reflect.Value{}, false
	}
}

//nolint:gochecknoglobals
var errorType = reflect.TypeFor[error]()

// method calls the accessor method of v named name or its camel-case form.
// It reports false if v has no such method.
func method(v reflect.Value, name string) (any, bool, error) {
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false, nil
	}

	for _, n := range []string{name, strcase.ToCamel(name)} {
		m := v.MethodByName(n)
		if !m.IsValid() {
			continue
		}

		mt := m.Type()
		if mt.NumIn() != 0 {
			continue
		}

		switch {
		case mt.NumOut() == 1:
			return m.Call(nil)[0].Interface(), true, nil

		case mt.NumOut() == 2 && mt.Out(1) == errorType:
			out := m.Call(nil)
			if err, _ := out[1].Interface().(error); err != nil {
				return nil, true, ErrField.Wrap(err)
			}

			return out[0].Interface(), true, nil
		}
	}

	return nil, false, nil
}
