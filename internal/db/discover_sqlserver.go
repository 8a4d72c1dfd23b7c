package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

const (
	sqlServerObjectIDQuery = `
SELECT OBJECT_ID(@p1), (SELECT o.type FROM sys.objects AS o WHERE o.object_id = OBJECT_ID(@p1))`

	sqlServerParametersQuery = `
SELECT p.name, p.is_output, t.name, p.max_length, p.precision, p.scale, p.is_nullable, p.parameter_id
FROM sys.parameters AS p
JOIN sys.types AS t ON t.user_type_id = p.user_type_id
WHERE p.object_id = @p1
ORDER BY p.parameter_id`
)

// sqlServerRoutineTypes are the sys.objects types that take parameters:
// procedures (SQL, CLR, extended) and scalar or table-valued functions.
var sqlServerRoutineTypes = map[string]bool{
	"P": true, "PC": true, "X": true,
	"FN": true, "FS": true, "IF": true, "TF": true, "FT": true,
}

// DeriveSQLServerParameters discovers the parameters of a SQL Server
// procedure from the sys.parameters catalog. The set always starts with the
// return status; output parameters are reported as InputOutput because the
// catalog cannot tell the two apart.
func DeriveSQLServerParameters(ctx context.Context, cmd *sphelper.Command) error {
	conn, err := commandConnection(cmd)
	if err != nil {
		return err
	}

	var (
		objectID   sql.NullInt64
		objectType sql.NullString
	)
	err = scanAll(ctx, conn, sqlServerObjectIDQuery, []any{cmd.Text}, func(rows sphelper.Rows) error {
		return rows.Scan(&objectID, &objectType)
	})
	if err != nil {
		return fmt.Errorf("resolve %s: %w", cmd.Text, err)
	}
	if !objectID.Valid {
		return fmt.Errorf("%s: %w", cmd.Text, sphelper.ErrProcedureNotFound)
	}
	if kind := strings.TrimSpace(objectType.String); !sqlServerRoutineTypes[kind] {
		return fmt.Errorf("%s is an object of type %q, not a procedure or function: %w", cmd.Text, kind, sphelper.ErrProcedureNotFound)
	}

	returnValue := &sphelper.Parameter{
		Name:      sphelper.ReturnValueParameterName,
		Direction: sphelper.DirectionReturnValue,
		DataType:  "int",
	}
	params := []*sphelper.Parameter{returnValue}

	err = scanAll(ctx, conn, sqlServerParametersQuery, []any{objectID.Int64}, func(rows sphelper.Rows) error {
		var (
			name, typeName                       string
			isOutput, nullable                   bool
			maxLength, precision, scale, ordinal int64
		)
		if err := rows.Scan(&name, &isOutput, &typeName, &maxLength, &precision, &scale, &nullable, &ordinal); err != nil {
			return err
		}

		// parameter_id 0 is the result of a scalar function.
		if ordinal == 0 {
			returnValue.DataType = typeName
			return nil
		}

		p := &sphelper.Parameter{
			Name:      name,
			Direction: sphelper.DirectionInput,
			DataType:  typeName,
			Size:      sqlServerSize(typeName, maxLength),
			Nullable:  nullable,
			Position:  int(ordinal),
		}
		if isOutput {
			p.Direction = sphelper.DirectionInputOutput
		}
		if hasPrecision(typeName) {
			p.Precision = uint8(precision)
			p.Scale = uint8(scale)
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

// sqlServerSize converts sys.parameters.max_length (bytes) to characters.
func sqlServerSize(typeName string, maxLength int64) int {
	if maxLength == -1 {
		return -1
	}
	switch strings.ToLower(typeName) {
	case "nchar", "nvarchar":
		return int(maxLength / 2)
	case "char", "varchar", "binary", "varbinary":
		return int(maxLength)
	default:
		return 0
	}
}

func hasPrecision(typeName string) bool {
	switch strings.ToLower(typeName) {
	case "decimal", "numeric", "datetime2", "datetimeoffset", "time":
		return true
	default:
		return false
	}
}
