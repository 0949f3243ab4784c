package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotObject reports stored bytes that are not a JSON object.
var ErrNotObject = errors.New("docstore: stored document is not a JSON object")

// FieldFallback records a stored field that could not be decoded and was
// replaced by its default. Stored holds the original bytes and Default the
// encoding of the value used in their place; Encode writes Stored back for as
// long as the field still encodes to Default.
type FieldFallback struct {
	Field   string
	Err     error
	Stored  json.RawMessage
	Default json.RawMessage
}

// Reconciled is the outcome of merging stored bytes over defaults.
type Reconciled[T any] struct {
	Data      T
	Extra     map[string]json.RawMessage
	Fallbacks []FieldFallback
}

// fieldIndex maps JSON field names onto struct field positions.
type fieldIndex map[string]int

func indexFields(typ reflect.Type) (fieldIndex, error) {
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("docstore: document type %s is not a struct", typ)
	}
	idx := make(fieldIndex, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		idx[name] = i
	}
	return idx, nil
}

// Reconcile merges raw over defaults one top-level field at a time. Stored
// fields replace their default wholesale; required fields whose stored value
// is missing or falsy keep the default; fields that fail to decode keep the
// default and are reported in Fallbacks. Unknown fields are returned in Extra.
// Bytes that are not a JSON object yield ErrNotObject.
func Reconcile[T any](raw []byte, defaults T, required []string) (Reconciled[T], error) {
	out := Reconciled[T]{Data: defaults}
	idx, err := indexFields(reflect.TypeOf(defaults))
	if err != nil {
		return out, err
	}
	stored, err := decodeObject(raw)
	if err != nil {
		return out, err
	}
	req := make(map[string]struct{}, len(required))
	for _, name := range required {
		req[name] = struct{}{}
	}
	target := reflect.ValueOf(&out.Data).Elem()
	for name, value := range stored {
		pos, known := idx[name]
		if !known {
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[name] = value
			continue
		}
		if _, isRequired := req[name]; isRequired && IsFalsy(value) {
			continue
		}
		field := target.Field(pos)
		decoded := reflect.New(field.Type())
		if err := json.Unmarshal(value, decoded.Interface()); err != nil {
			def, merr := json.Marshal(field.Interface())
			if merr != nil {
				return out, fmt.Errorf("docstore: encode default %s: %w", name, merr)
			}
			out.Fallbacks = append(out.Fallbacks, FieldFallback{Field: name, Err: err, Stored: value, Default: def})
			continue
		}
		field.Set(decoded.Elem())
	}
	return out, nil
}

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var stored map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	return stored, nil
}

// IsFalsy reports whether a JSON value is null, false, numerically zero or
// the empty string.
func IsFalsy(value json.RawMessage) bool {
	v := bytes.TrimSpace(value)
	if len(v) == 0 {
		return true
	}
	switch v[0] {
	case 'n':
		return string(v) == "null"
	case 'f':
		return string(v) == "false"
	case '"':
		var s string
		return json.Unmarshal(v, &s) == nil && s == ""
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(v), 64)
		return err == nil && f == 0
	default:
		return false
	}
}

// Encode serialises data and merges extra fields that data does not define.
// A field listed in fallbacks that still encodes to its default is written
// with the stored bytes it replaced.
func Encode[T any](data T, extra map[string]json.RawMessage, fallbacks ...FieldFallback) ([]byte, error) {
	raw, _, err := encode(data, extra, fallbacks)
	return raw, err
}

// encode also returns the fallbacks whose stored bytes were written back.
func encode[T any](data T, extra map[string]json.RawMessage, fallbacks []FieldFallback) ([]byte, []FieldFallback, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	if len(extra) == 0 && len(fallbacks) == 0 {
		return raw, nil, nil
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	for name, value := range extra {
		if _, defined := fields[name]; !defined {
			fields[name] = value
		}
	}
	var kept []FieldFallback
	for _, fb := range fallbacks {
		current, defined := fields[fb.Field]
		if !defined || !sameJSON(current, fb.Default) {
			continue
		}
		fields[fb.Field] = fb.Stored
		kept = append(kept, fb)
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, fmt.Errorf("docstore: encode document: %w", err)
	}
	return out, kept, nil
}

func sameJSON(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
