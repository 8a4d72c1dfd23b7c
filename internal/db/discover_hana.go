package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

const (
	hanaProcedureExistsQuery = `
SELECT COUNT(*) FROM SYS.PROCEDURES
WHERE SCHEMA_NAME = COALESCE(?, CURRENT_SCHEMA) AND PROCEDURE_NAME = ?`

	hanaParametersQuery = `
SELECT PARAMETER_NAME, PARAMETER_TYPE, DATA_TYPE_NAME, LENGTH, SCALE, IS_NULLABLE, POSITION
FROM SYS.PROCEDURE_PARAMETERS
WHERE SCHEMA_NAME = COALESCE(?, CURRENT_SCHEMA) AND PROCEDURE_NAME = ?
ORDER BY POSITION`
)

// DeriveHANAParameters discovers the parameters of an SAP HANA procedure
// from SYS.PROCEDURE_PARAMETERS. HANA procedures have no return status.
func DeriveHANAParameters(ctx context.Context, cmd *sphelper.Command) error {
	conn, err := commandConnection(cmd)
	if err != nil {
		return err
	}
	schema, name := splitQualifiedName(cmd.Text, strings.ToUpper)
	args := []any{optionalSchema(schema), name}

	var count int64
	err = scanAll(ctx, conn, hanaProcedureExistsQuery, args, func(rows sphelper.Rows) error {
		return rows.Scan(&count)
	})
	if err != nil {
		return fmt.Errorf("resolve %s: %w", cmd.Text, err)
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", cmd.Text, sphelper.ErrProcedureNotFound)
	}

	params := []*sphelper.Parameter{}
	err = scanAll(ctx, conn, hanaParametersQuery, args, func(rows sphelper.Rows) error {
		var (
			paramName, mode, dataType, nullable string
			length, scale                       sql.NullInt64
			position                            int64
		)
		if err := rows.Scan(&paramName, &mode, &dataType, &length, &scale, &nullable, &position); err != nil {
			return err
		}

		direction, err := sphelper.ParseDirection(mode)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", paramName, err)
		}
		p := &sphelper.Parameter{
			Name:      paramName,
			Direction: direction,
			DataType:  dataType,
			Nullable:  strings.EqualFold(nullable, "TRUE"),
			Position:  int(position),
		}
		switch strings.ToUpper(dataType) {
		case "DECIMAL", "SMALLDECIMAL":
			p.Precision = uint8(length.Int64)
			p.Scale = uint8(scale.Int64)
		case "VARCHAR", "NVARCHAR", "ALPHANUM", "SHORTTEXT", "VARBINARY", "CHAR", "NCHAR", "BINARY":
			p.Size = int(length.Int64)
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
