package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// PostgresReturnValueName names the leading parameter that carries a
// function's result.
const PostgresReturnValueName = "returnValue"

const (
	pgRoutineQuery = `
SELECT r.specific_name::text, r.routine_type::text, r.data_type::text
FROM information_schema.routines AS r
WHERE r.routine_schema = COALESCE($1::text, current_schema()) AND r.routine_name = $2
ORDER BY r.specific_name
LIMIT 2`

	pgParametersQuery = `
SELECT p.ordinal_position::int, p.parameter_mode::text, p.parameter_name::text, p.data_type::text,
       p.character_maximum_length::int, p.numeric_precision::int, p.numeric_scale::int
FROM information_schema.parameters AS p
WHERE p.specific_schema = COALESCE($1::text, current_schema()) AND p.specific_name = $2
ORDER BY p.ordinal_position`
)

// DerivePostgresParameters discovers the parameters of a PostgreSQL
// procedure or function. Functions get a leading ReturnValue parameter typed
// with the declared result; procedures do not.
func DerivePostgresParameters(ctx context.Context, cmd *sphelper.Command) error {
	conn, err := commandConnection(cmd)
	if err != nil {
		return err
	}
	schema, name := splitQualifiedName(cmd.Text, strings.ToLower)

	var (
		found       int
		specific    string
		routineType string
		returnType  sql.NullString
	)
	err = scanAll(ctx, conn, pgRoutineQuery, []any{optionalSchema(schema), name}, func(rows sphelper.Rows) error {
		found++
		return rows.Scan(&specific, &routineType, &returnType)
	})
	if err != nil {
		return fmt.Errorf("resolve %s: %w", cmd.Text, err)
	}
	switch {
	case found == 0:
		return fmt.Errorf("%s: %w", cmd.Text, sphelper.ErrProcedureNotFound)
	case found > 1:
		return fmt.Errorf("%s is overloaded; overloaded routines are not supported", cmd.Text)
	}

	var params []*sphelper.Parameter
	if strings.EqualFold(routineType, "FUNCTION") {
		params = append(params, &sphelper.Parameter{
			Name:      PostgresReturnValueName,
			Direction: sphelper.DirectionReturnValue,
			DataType:  returnType.String,
			Nullable:  true,
		})
	}

	err = scanAll(ctx, conn, pgParametersQuery, []any{optionalSchema(schema), specific}, func(rows sphelper.Rows) error {
		var (
			ordinal                   int64
			mode, paramName           sql.NullString
			dataType                  string
			charLen, precision, scale sql.NullInt64
		)
		if err := rows.Scan(&ordinal, &mode, &paramName, &dataType, &charLen, &precision, &scale); err != nil {
			return err
		}

		direction, err := sphelper.ParseDirection(mode.String)
		if err != nil {
			// VARIADIC arguments are passed like IN arguments.
			direction = sphelper.DirectionInput
		}
		p := &sphelper.Parameter{
			Name:      paramName.String,
			Direction: direction,
			DataType:  dataType,
			Nullable:  true,
			Position:  int(ordinal),
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("$%d", ordinal)
		}
		if charLen.Valid {
			p.Size = int(charLen.Int64)
		}
		if precision.Valid && strings.EqualFold(dataType, "numeric") {
			p.Precision = uint8(precision.Int64)
			p.Scale = uint8(scale.Int64)
		}
		params = append(params, p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read parameters of %s: %w", cmd.Text, err)
	}

	cmd.Parameters = params
	return nil
}
