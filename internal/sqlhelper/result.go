package sqlhelper

import (
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// ResultSet is one tabular result of a call.
type ResultSet struct {
	Columns []string         `json:"columns" yaml:"columns"`
	Rows    []map[string]any `json:"rows" yaml:"rows"`
}

// Result collects everything a call produced.
type Result struct {
	// RowsAffected is reported by non-query calls; -1 when the driver did not report it.
	RowsAffected int64                 `json:"rowsAffected" yaml:"rows_affected"`
	ResultSets   []ResultSet           `json:"resultSets,omitempty" yaml:"result_sets,omitempty"`
	Output       map[string]any        `json:"output,omitempty" yaml:"output,omitempty"`
	ReturnValue  any                   `json:"returnValue,omitempty" yaml:"return_value,omitempty"`
	Parameters   []*sphelper.Parameter `json:"-" yaml:"-"`
}

// Scalar returns the first column of the first row of the first result set,
// or nil when there is none.
func (r *Result) Scalar() any {
	if r == nil || len(r.ResultSets) == 0 {
		return nil
	}
	rs := r.ResultSets[0]
	if len(rs.Rows) == 0 || len(rs.Columns) == 0 {
		return nil
	}
	return rs.Rows[0][rs.Columns[0]]
}

type nextResultSetter interface {
	NextResultSet() bool
}

// scanResultSets reads every result set of rows. Drivers whose cursor cannot
// advance to another set yield a single set.
func scanResultSets(rows sphelper.Rows) ([]ResultSet, error) {
	var sets []ResultSet
	multi, _ := rows.(nextResultSetter)

	for {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		rs := ResultSet{Columns: cols, Rows: make([]map[string]any, 0, 16)}
		for rows.Next() {
			raw := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, err
			}

			row := make(map[string]any, len(cols))
			for i, c := range cols {
				if b, ok := raw[i].([]byte); ok {
					raw[i] = append([]byte(nil), b...)
				}
				row[c] = raw[i]
			}
			rs.Rows = append(rs.Rows, row)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		// Statements that return no columns (DML inside a procedure) produce
		// empty sets that carry nothing.
		if len(cols) > 0 {
			sets = append(sets, rs)
		}
		if multi == nil || !multi.NextResultSet() {
			break
		}
	}
	return sets, nil
}
