package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Call is one procedure invocation ready to run on a Connection.
type Call struct {
	SQL  string
	Args []any

	// ScalarResult marks a function whose single result value is the return value.
	ScalarResult bool

	// OutputRow marks calls whose OUT and INOUT values come back as the
	// single row of the last result set instead of through bound arguments.
	OutputRow bool

	readBack []func()
}

// ReadBack copies values written by the driver into the output parameters.
// Call it after the statement's rows have been fully consumed.
func (c *Call) ReadBack() {
	for _, fn := range c.readBack {
		fn()
	}
}

// Dialect turns a bound parameter set into a provider-specific call.
type Dialect interface {
	Driver() string

	// IncludesReturnValue reports whether discovered sets carry a leading
	// ReturnValue parameter that the call needs.
	IncludesReturnValue() bool

	BuildCall(procedure string, params []*sphelper.Parameter) (*Call, error)

	// TextArgs binds the input values of an ad-hoc command.
	TextArgs(params []*sphelper.Parameter) []any
}

// DialectFor returns the Dialect for driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case sphelper.DriverSQLServer:
		return SQLServerDialect{}, nil
	case sphelper.DriverPostgres:
		return PostgresDialect{}, nil
	case sphelper.DriverHANA:
		return HANADialect{}, nil
	default:
		return nil, fmt.Errorf("no call dialect for driver %q: %w", driver, sphelper.ErrUnsupportedDriver)
	}
}

// SQLServerDialect executes the procedure as an RPC by name. Parameters are
// bound with sql.Named, outputs with sql.Out and the return status with
// mssql.ReturnStatus.
type SQLServerDialect struct{}

func (SQLServerDialect) Driver() string            { return sphelper.DriverSQLServer }
func (SQLServerDialect) IncludesReturnValue() bool { return true }

func (SQLServerDialect) BuildCall(procedure string, params []*sphelper.Parameter) (*Call, error) {
	if strings.ContainsAny(procedure, " \t\r\n;") {
		return nil, fmt.Errorf("procedure name %q must not contain whitespace or ';': %w", procedure, sphelper.ErrInvalidArgument)
	}
	call := &Call{SQL: procedure}

	for _, p := range params {
		switch p.Direction {
		case sphelper.DirectionReturnValue:
			status := new(mssql.ReturnStatus)
			call.Args = append(call.Args, status)
			call.readBack = append(call.readBack, func() { p.Value = int32(*status) })
		case sphelper.DirectionInput:
			call.Args = append(call.Args, sql.Named(p.BareName(), p.Value))
		default:
			out, err := outputArg(p)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, sql.Named(p.BareName(), out))
			call.readBack = append(call.readBack, readBackFunc(p, out.Dest))
		}
	}
	return call, nil
}

func (SQLServerDialect) TextArgs(params []*sphelper.Parameter) []any {
	args := make([]any, 0, len(params))
	for _, p := range params {
		args = append(args, sql.Named(p.BareName(), p.Value))
	}
	return args
}

// PostgresDialect calls procedures with CALL and functions with
// SELECT * FROM. Functions are recognised by their leading ReturnValue
// parameter.
type PostgresDialect struct{}

func (PostgresDialect) Driver() string            { return sphelper.DriverPostgres }
func (PostgresDialect) IncludesReturnValue() bool { return true }

func (PostgresDialect) BuildCall(procedure string, params []*sphelper.Parameter) (*Call, error) {
	isFunction := len(params) > 0 && params[0].Direction == sphelper.DirectionReturnValue

	var (
		placeholders []string
		args         []any
		hasOutputs   bool
	)
	for _, p := range params {
		switch p.Direction {
		case sphelper.DirectionReturnValue:
			continue
		case sphelper.DirectionOutput:
			hasOutputs = true
			if isFunction {
				// OUT arguments of a function are result columns, not inputs.
				continue
			}
		case sphelper.DirectionInputOutput:
			hasOutputs = true
		}
		args = append(args, p.Value)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	argList := strings.Join(placeholders, ", ")
	if isFunction {
		returnType := strings.ToLower(params[0].DataType)
		return &Call{
			SQL:          fmt.Sprintf("SELECT * FROM %s(%s)", procedure, argList),
			Args:         args,
			ScalarResult: !hasOutputs && returnType != "record" && returnType != "void",
		}, nil
	}
	return &Call{
		SQL:       fmt.Sprintf("CALL %s(%s)", procedure, argList),
		Args:      args,
		OutputRow: hasOutputs,
	}, nil
}

func (PostgresDialect) TextArgs(params []*sphelper.Parameter) []any {
	return positionalArgs(params)
}

// HANADialect calls procedures with CALL and positional markers; output
// parameters are bound with sql.Out.
type HANADialect struct{}

func (HANADialect) Driver() string            { return sphelper.DriverHANA }
func (HANADialect) IncludesReturnValue() bool { return false }

func (HANADialect) BuildCall(procedure string, params []*sphelper.Parameter) (*Call, error) {
	call := &Call{}
	markers := make([]string, 0, len(params))

	for _, p := range params {
		switch p.Direction {
		case sphelper.DirectionReturnValue:
			continue
		case sphelper.DirectionInput:
			call.Args = append(call.Args, p.Value)
		default:
			out, err := outputArg(p)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, sql.Named(p.BareName(), out))
			call.readBack = append(call.readBack, readBackFunc(p, out.Dest))
		}
		markers = append(markers, "?")
	}

	call.SQL = fmt.Sprintf("CALL %s(%s)", procedure, strings.Join(markers, ", "))
	return call, nil
}

func (HANADialect) TextArgs(params []*sphelper.Parameter) []any {
	return positionalArgs(params)
}

func positionalArgs(params []*sphelper.Parameter) []any {
	args := make([]any, 0, len(params))
	for _, p := range params {
		args = append(args, p.Value)
	}
	return args
}

// outputArg builds the sql.Out for p, seeding it with p.Value for InputOutput.
func outputArg(p *sphelper.Parameter) (sql.Out, error) {
	dest := outputDest(p.DataType)
	out := sql.Out{Dest: dest}

	if p.Direction == sphelper.DirectionInputOutput && p.Value != nil {
		if err := seedOutput(dest, p.Value); err != nil {
			return sql.Out{}, fmt.Errorf("parameter %s: %w: %w", p.Name, sphelper.ErrInvalidArgument, err)
		}
		out.In = true
	}
	return out, nil
}

// outputDest picks a nullable destination matching the declared type.
func outputDest(dataType string) any {
	switch strings.ToLower(dataType) {
	case "int", "integer", "bigint", "smallint", "tinyint":
		return new(sql.NullInt64)
	case "bit", "boolean":
		return new(sql.NullBool)
	case "float", "real", "double", "double precision":
		return new(sql.NullFloat64)
	case "date", "datetime", "datetime2", "smalldatetime", "datetimeoffset", "time", "timestamp", "seconddate":
		return new(sql.NullTime)
	case "binary", "varbinary", "image", "rowversion", "blob", "bytea":
		return new([]byte)
	default:
		return new(sql.NullString)
	}
}

func seedOutput(dest any, value any) error {
	if b, ok := dest.(*[]byte); ok {
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("cannot use %T as binary", value)
		}
		*b = append([]byte(nil), v...)
		return nil
	}
	return dest.(sql.Scanner).Scan(value)
}

func readBackFunc(p *sphelper.Parameter, dest any) func() {
	return func() {
		if b, ok := dest.(*[]byte); ok {
			if *b == nil {
				p.Value = nil
			} else {
				p.Value = *b
			}
			return
		}
		v, err := dest.(driver.Valuer).Value()
		if err != nil {
			v = nil
		}
		p.Value = v
	}
}
