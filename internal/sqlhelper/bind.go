package sqlhelper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Binder assigns caller values to a parameter template.
type Binder func(params []*sphelper.Parameter) error

// FromValues binds values positionally. See AssignParameterValues.
func FromValues(values ...any) Binder {
	return func(params []*sphelper.Parameter) error {
		return AssignParameterValues(params, values...)
	}
}

// FromStruct binds the exported fields of obj. See AssignParametersFromStruct.
func FromStruct(obj any) Binder {
	return func(params []*sphelper.Parameter) error {
		return AssignParametersFromStruct(params, obj)
	}
}

// FromRow binds the columns of row. See AssignParametersFromRow.
func FromRow(row map[string]any) Binder {
	return func(params []*sphelper.Parameter) error {
		return AssignParametersFromRow(params, row)
	}
}

// AssignParameterValues assigns values in declaration order to every
// parameter except the return value. Supplying no values leaves all
// parameters NULL; otherwise the counts must match.
func AssignParameterValues(params []*sphelper.Parameter, values ...any) error {
	if len(values) == 0 {
		return nil
	}
	targets := bindable(params)
	if len(targets) != len(values) {
		return fmt.Errorf("%d values for %d parameters: %w", len(values), len(targets), sphelper.ErrParameterCountMismatch)
	}
	for i, p := range targets {
		p.Value = values[i]
	}
	return nil
}

// AssignParametersFromStruct assigns the exported fields of obj (a struct or
// pointer to one) to parameters with the same name. A `db:"name"` tag
// overrides the field name and `db:"-"` skips the field. Matching ignores
// case and @ : $ prefixes. Fields of embedded structs take part unless an
// outer field has the same name. Parameters without a field stay nil.
func AssignParametersFromStruct(params []*sphelper.Parameter, obj any) error {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return fmt.Errorf("cannot bind from nil %T: %w", obj, sphelper.ErrInvalidArgument)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("cannot bind from %T, want a struct: %w", obj, sphelper.ErrInvalidArgument)
	}

	fields := make(map[string]any)
	collectFields(v, fields)
	assignByName(params, fields)
	return nil
}

// AssignParametersFromRow assigns row values to parameters whose name
// matches a column (case-insensitive, prefixes ignored).
func AssignParametersFromRow(params []*sphelper.Parameter, row map[string]any) error {
	if row == nil {
		return fmt.Errorf("cannot bind from a nil row: %w", sphelper.ErrInvalidArgument)
	}
	columns := make(map[string]any, len(row))
	for name, value := range row {
		columns[bindKey(name)] = value
	}
	assignByName(params, columns)
	return nil
}

func bindable(params []*sphelper.Parameter) []*sphelper.Parameter {
	out := make([]*sphelper.Parameter, 0, len(params))
	for _, p := range params {
		if p.Direction != sphelper.DirectionReturnValue {
			out = append(out, p)
		}
	}
	return out
}

func bindKey(name string) string {
	return strings.ToLower(sphelper.NormalizeParameterName(name))
}

func assignByName(params []*sphelper.Parameter, values map[string]any) {
	for _, p := range bindable(params) {
		if v, ok := values[bindKey(p.Name)]; ok {
			p.Value = v
		}
	}
}

// collectFields records outer fields before descending into embedded structs
// so the shallower field wins.
func collectFields(v reflect.Value, into map[string]any) {
	t := v.Type()
	var embedded []reflect.Value

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)

		if f.Anonymous {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				embedded = append(embedded, fv)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		name := f.Name
		if tag, ok := f.Tag.Lookup("db"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		key := bindKey(name)
		if _, taken := into[key]; !taken {
			into[key] = fv.Interface()
		}
	}

	for _, ev := range embedded {
		collectFields(ev, into)
	}
}
