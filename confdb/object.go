// Package confdb implements the configuration object store: named contexts
// holding ordered lists of records, resolved against a user directory plus
// read-only system directories and persisted as YAML.
package confdb

import (
	"fmt"
	"strconv"
)

// Object is one record in a context: either a class-tagged field map, or a
// bare value ("field" records, used by contexts that are plain string lists
// such as the recent-profiles list).
type Object struct {
	Class  string            `yaml:"class,omitempty"`
	Value  string            `yaml:"value,omitempty"`
	Fields map[string]string `yaml:"fields,omitempty"`
}

// NewObject returns an empty record of the given class.
func NewObject(class string) Object {
	return Object{Class: class, Fields: make(map[string]string)}
}

// MakeField returns a bare-value record.
func MakeField(value string) Object { return Object{Value: value} }

// IsField reports whether the record is a bare value rather than an object.
func (o Object) IsField() bool { return o.Class == "" && o.Fields == nil }

// Get returns the named field's raw value.
func (o Object) Get(name string) (string, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

// Set stores a field, allocating the field map on first use.
func (o *Object) Set(name, value string) {
	if o.Fields == nil {
		o.Fields = make(map[string]string)
	}
	o.Fields[name] = value
}

// SetFloat stores a numeric field in its shortest round-trippable form.
func (o *Object) SetFloat(name string, v float64) {
	o.Set(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// SetInt stores an integer field.
func (o *Object) SetInt(name string, v int64) {
	o.Set(name, strconv.FormatInt(v, 10))
}

// GetFloat parses the named field as a float.
func (o Object) GetFloat(name string) (float64, error) {
	raw, ok := o.Get(name)
	if !ok {
		return 0, fmt.Errorf("object %q has no field %q", o.Class, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", name, err)
	}
	return v, nil
}

// GetInt parses the named field as an integer. Values written as floats
// (the original store kept frequencies in %g form) are accepted and
// truncated.
func (o Object) GetInt(name string) (int64, error) {
	raw, ok := o.Get(name)
	if !ok {
		return 0, fmt.Errorf("object %q has no field %q", o.Class, name)
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", name, err)
	}
	return int64(f), nil
}

// Clone returns a copy that shares no field storage with the original.
func (o Object) Clone() Object {
	out := Object{Class: o.Class, Value: o.Value}
	if o.Fields != nil {
		out.Fields = make(map[string]string, len(o.Fields))
		for k, v := range o.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
