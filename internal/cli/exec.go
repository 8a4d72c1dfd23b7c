package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sphelper/internal/sqlhelper"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

var execFlags struct {
	params   []string
	nonQuery bool
}

var execCmd = &cobra.Command{
	Use:   "exec <procedure> [values...]",
	Short: "Execute a stored procedure",
	Long: `Execute a stored procedure with values bound positionally (in
declaration order, return value excluded) or by name with --param.

Values are converted using the discovered parameter types; the literal
NULL binds a database NULL.

Examples:
  sphelper exec dbo.GetOrders 42 2024-01-01 NULL
  sphelper exec dbo.GetOrders -p customerId=42 -p since=2024-01-01
  sphelper exec archive_orders 2024-01-01 NULL --non-query`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringArrayVarP(&execFlags.params, "param", "p", nil, "Bind a parameter by name (name=value, repeatable)")
	execCmd.Flags().BoolVar(&execFlags.nonQuery, "non-query", false, "Report rows affected instead of reading result sets")
	rootCmd.AddCommand(execCmd)
}

type execOutput struct {
	Procedure    string                `json:"procedure" yaml:"procedure"`
	RowsAffected int64                 `json:"rowsAffected" yaml:"rows_affected"`
	ReturnValue  any                   `json:"returnValue,omitempty" yaml:"return_value,omitempty"`
	Output       map[string]any        `json:"output,omitempty" yaml:"output,omitempty"`
	ResultSets   []sqlhelper.ResultSet `json:"resultSets,omitempty" yaml:"result_sets,omitempty"`
}

func runExec(cmd *cobra.Command, args []string) error {
	procedure, values := args[0], args[1:]
	bind, err := execBinder(values, execFlags.params)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := newSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	helper, err := sqlhelper.New(s.source, sqlhelper.WithCache(s.cache), sqlhelper.WithLogger(s.logger))
	if err != nil {
		return err
	}

	var res *sqlhelper.Result
	if execFlags.nonQuery {
		res, err = helper.ExecuteNonQueryWith(ctx, procedure, bind)
	} else {
		res, err = helper.ExecuteQueryWith(ctx, procedure, bind)
	}
	if err != nil {
		return err
	}

	out := newExecOutput(procedure, res)
	return render(cmd.OutOrStdout(), flags.output, out, func(tw *tabwriter.Writer) {
		writeExecTables(tw, out)
	})
}

// execBinder binds command-line strings, converting each one with the
// declared type of the parameter it lands on.
func execBinder(values, named []string) (sqlhelper.Binder, error) {
	if len(values) > 0 && len(named) > 0 {
		return nil, fmt.Errorf("use either positional values or --param, not both: %w", sphelper.ErrInvalidArgument)
	}

	row := make(map[string]any, len(named))
	for _, kv := range named {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--param %q: want name=value: %w", kv, sphelper.ErrInvalidArgument)
		}
		row[strings.TrimSpace(name)] = value
	}

	return func(params []*sphelper.Parameter) error {
		if len(named) > 0 {
			if err := sqlhelper.AssignParametersFromRow(params, row); err != nil {
				return err
			}
		} else {
			raw := make([]any, len(values))
			for i, v := range values {
				raw[i] = v
			}
			if err := sqlhelper.AssignParameterValues(params, raw...); err != nil {
				return err
			}
		}

		for _, p := range params {
			s, ok := p.Value.(string)
			if !ok {
				continue
			}
			v, err := coerce(p.DataType, s)
			if err != nil {
				return fmt.Errorf("parameter %s: %w: %w", p.Name, sphelper.ErrInvalidArgument, err)
			}
			p.Value = v
		}
		return nil
	}, nil
}

// coerce converts a command-line value for a parameter of dataType.
// Types without a natural Go form (decimal, dates, text) stay strings and
// are converted by the driver.
func coerce(dataType, s string) (any, error) {
	if s == "NULL" {
		return nil, nil
	}
	switch strings.ToLower(dataType) {
	case "int", "integer", "bigint", "smallint", "tinyint", "int2", "int4", "int8":
		return strconv.ParseInt(s, 10, 64)
	case "bit", "boolean", "bool":
		return strconv.ParseBool(s)
	case "float", "real", "double", "double precision", "float4", "float8":
		return strconv.ParseFloat(s, 64)
	default:
		return s, nil
	}
}

func newExecOutput(procedure string, res *sqlhelper.Result) execOutput {
	out := execOutput{
		Procedure:    procedure,
		RowsAffected: res.RowsAffected,
		ReturnValue:  displayValue(res.ReturnValue),
	}
	if len(res.Output) > 0 {
		out.Output = make(map[string]any, len(res.Output))
		for k, v := range res.Output {
			out.Output[k] = displayValue(v)
		}
	}
	for _, rs := range res.ResultSets {
		converted := sqlhelper.ResultSet{Columns: rs.Columns, Rows: make([]map[string]any, len(rs.Rows))}
		for i, row := range rs.Rows {
			converted.Rows[i] = make(map[string]any, len(row))
			for k, v := range row {
				converted.Rows[i][k] = displayValue(v)
			}
		}
		out.ResultSets = append(out.ResultSets, converted)
	}
	return out
}

func writeExecTables(tw *tabwriter.Writer, out execOutput) {
	for i, rs := range out.ResultSets {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, strings.Join(rs.Columns, "\t"))
		for _, row := range rs.Rows {
			cells := make([]string, len(rs.Columns))
			for j, c := range rs.Columns {
				cells[j] = cell(row[c])
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		fmt.Fprintf(tw, "(%d rows)\n", len(rs.Rows))
	}

	if len(out.Output) > 0 {
		fmt.Fprintln(tw, "\nOUTPUT\tVALUE")
		names := make([]string, 0, len(out.Output))
		for name := range out.Output {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(tw, "%s\t%s\n", name, cell(out.Output[name]))
		}
	}
	if out.ReturnValue != nil {
		fmt.Fprintf(tw, "\nreturn value: %s\n", cell(out.ReturnValue))
	}
	if out.RowsAffected >= 0 {
		fmt.Fprintf(tw, "\nrows affected: %d\n", out.RowsAffected)
	}
}
