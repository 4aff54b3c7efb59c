package boardex

import (
	"fmt"
	"reflect"

	"github.com/kailas-cloud/boardex/internal/domain/props"
)

const tagKey = "board"

// fieldBinding maps one struct field to a dotted property path.
type fieldBinding struct {
	structIdx int
	path      string
}

// parseBindings reflects on T and extracts board struct tag metadata.
func parseBindings[T any]() ([]fieldBinding, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("boardex: type %s is not a struct", t)
	}

	var out []fieldBinding
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, fieldBinding{structIdx: i, path: tag})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("boardex: no field with `board:\"...\"` tag in %s", t)
	}
	return out, nil
}

// DecodeDocuments maps query-result documents onto a tagged struct type.
// Tags hold dotted property paths; file metadata is reachable under "file":
//
//	type Task struct {
//	    Name   string  `board:"file.name"`
//	    Status string  `board:"status"`
//	    Points float64 `board:"points"`
//	}
//
//	tasks, _ := boardex.DecodeDocuments[Task](res.Documents)
//
// A missing property leaves its field at the zero value; a property that
// cannot convert to the field's kind is an error.
func DecodeDocuments[T any](docs []Document) ([]T, error) {
	bindings, err := parseBindings[T]()
	if err != nil {
		return nil, err
	}

	out := make([]T, len(docs))
	for i := range docs {
		bag := props.Reconstruct(docs[i].Properties)
		v := reflect.ValueOf(&out[i]).Elem()
		for _, b := range bindings {
			raw, ok := bag.Lookup(b.path)
			if !ok {
				continue
			}
			if !assignField(v.Field(b.structIdx), raw) {
				return nil, fmt.Errorf("boardex: document %s: property %q (%T) does not fit field %s",
					docs[i].Path, b.path, raw, v.Type().Field(b.structIdx).Name)
			}
		}
	}
	return out, nil
}

// assignField converts a raw property value onto a struct field. Strings
// accept anything via the property's display form; numeric kinds go through
// the shared coercion so "13" and 13 both land.
func assignField(field reflect.Value, raw any) bool {
	switch field.Kind() {
	case reflect.String:
		field.SetString(props.String(raw))
		return true
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return false
		}
		field.SetBool(b)
		return true
	case reflect.Float32, reflect.Float64:
		f, ok := props.Number(raw)
		if !ok {
			return false
		}
		field.SetFloat(f)
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, ok := props.Number(raw)
		if !ok {
			return false
		}
		field.SetInt(int64(f))
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, ok := props.Number(raw)
		if !ok || f < 0 {
			return false
		}
		field.SetUint(uint64(f))
		return true
	case reflect.Slice:
		return assignSlice(field, raw)
	default:
		return false
	}
}

// assignSlice fills a []string field from a sequence property, rendering
// each element through its display form. Scalars become a one-element slice.
func assignSlice(field reflect.Value, raw any) bool {
	if field.Type().Elem().Kind() != reflect.String {
		return false
	}
	seq, ok := raw.([]any)
	if !ok {
		seq = []any{raw}
	}
	out := reflect.MakeSlice(field.Type(), len(seq), len(seq))
	for i, v := range seq {
		out.Index(i).SetString(props.String(v))
	}
	field.Set(out)
	return true
}
