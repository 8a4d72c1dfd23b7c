package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

func TestDiscoverFor(t *testing.T) {
	for _, driver := range []string{sphelper.DriverSQLServer, sphelper.DriverPostgres, sphelper.DriverHANA} {
		fn, err := DiscoverFor(driver)
		require.NoError(t, err, driver)
		assert.NotNil(t, fn, driver)
	}

	_, err := DiscoverFor("oracle")
	assert.ErrorIs(t, err, sphelper.ErrUnsupportedDriver)
}

func TestDeriveSQLServerParameters(t *testing.T) {
	conn := &catalogConnection{
		driver: sphelper.DriverSQLServer,
		answers: []cannedQuery{
			{match: "OBJECT_ID", rows: [][]any{{int64(1205579333), "P "}}},
			{match: "sys.parameters", rows: [][]any{
				{"@customerId", false, "int", int64(4), int64(10), int64(0), false, int64(1)},
				{"@note", false, "nvarchar", int64(200), int64(0), int64(0), true, int64(2)},
				{"@blob", false, "varbinary", int64(-1), int64(0), int64(0), true, int64(3)},
				{"@total", true, "decimal", int64(9), int64(18), int64(2), true, int64(4)},
			}},
		},
	}

	cmd := conn.discoveryCommand("dbo.GetOrders")
	require.NoError(t, DeriveSQLServerParameters(context.Background(), cmd))

	require.Len(t, cmd.Parameters, 5)
	rv := cmd.Parameters[0]
	assert.Equal(t, sphelper.ReturnValueParameterName, rv.Name)
	assert.Equal(t, sphelper.DirectionReturnValue, rv.Direction)
	assert.Equal(t, "int", rv.DataType)

	assert.Equal(t, "@customerId", cmd.Parameters[1].Name)
	assert.Equal(t, sphelper.DirectionInput, cmd.Parameters[1].Direction)
	assert.Equal(t, 0, cmd.Parameters[1].Size)

	assert.Equal(t, 100, cmd.Parameters[2].Size, "nvarchar length is reported in bytes")
	assert.True(t, cmd.Parameters[2].Nullable)
	assert.Equal(t, -1, cmd.Parameters[3].Size)

	total := cmd.Parameters[4]
	assert.Equal(t, sphelper.DirectionInputOutput, total.Direction)
	assert.Equal(t, uint8(18), total.Precision)
	assert.Equal(t, uint8(2), total.Scale)
	assert.Equal(t, 4, total.Position)

	require.Len(t, conn.queries, 2)
	assert.Equal(t, []any{"dbo.GetOrders"}, conn.queries[0].args)
	assert.Equal(t, []any{int64(1205579333)}, conn.queries[1].args)
}

func TestDeriveSQLServerParameters_ScalarFunctionResult(t *testing.T) {
	conn := &catalogConnection{
		driver: sphelper.DriverSQLServer,
		answers: []cannedQuery{
			{match: "OBJECT_ID", rows: [][]any{{int64(7), "FN"}}},
			{match: "sys.parameters", rows: [][]any{
				{"", true, "money", int64(8), int64(19), int64(4), true, int64(0)},
				{"@id", false, "int", int64(4), int64(10), int64(0), false, int64(1)},
			}},
		},
	}

	cmd := conn.discoveryCommand("dbo.OrderTotal")
	require.NoError(t, DeriveSQLServerParameters(context.Background(), cmd))
	require.Len(t, cmd.Parameters, 2)
	assert.Equal(t, "money", cmd.Parameters[0].DataType)
	assert.Equal(t, "@id", cmd.Parameters[1].Name)
}

func TestDeriveSQLServerParameters_NotFound(t *testing.T) {
	conn := &catalogConnection{
		driver:  sphelper.DriverSQLServer,
		answers: []cannedQuery{{match: "OBJECT_ID", rows: [][]any{{nil, nil}}}},
	}

	err := DeriveSQLServerParameters(context.Background(), conn.discoveryCommand("dbo.Missing"))
	assert.ErrorIs(t, err, sphelper.ErrProcedureNotFound)
}

func TestDeriveSQLServerParameters_NotARoutine(t *testing.T) {
	for _, kind := range []string{"U ", "V ", "SN"} {
		t.Run(kind, func(t *testing.T) {
			conn := &catalogConnection{
				driver:  sphelper.DriverSQLServer,
				answers: []cannedQuery{{match: "OBJECT_ID", rows: [][]any{{int64(42), kind}}}},
			}

			err := DeriveSQLServerParameters(context.Background(), conn.discoveryCommand("dbo.Orders"))
			assert.ErrorIs(t, err, sphelper.ErrProcedureNotFound)
			assert.Len(t, conn.queries, 1, "parameters are not read for non-routines")
		})
	}
}

func TestDeriveSQLServerParameters_QueryError(t *testing.T) {
	boom := errors.New("login failed")
	conn := &catalogConnection{
		driver:  sphelper.DriverSQLServer,
		answers: []cannedQuery{{match: "OBJECT_ID", err: boom}},
	}

	err := DeriveSQLServerParameters(context.Background(), conn.discoveryCommand("dbo.GetOrders"))
	assert.ErrorIs(t, err, boom)
}

func TestDerivePostgresParameters_Function(t *testing.T) {
	conn := &catalogConnection{
		driver: sphelper.DriverPostgres,
		answers: []cannedQuery{
			{match: "information_schema.routines", rows: [][]any{{"order_total_16391", "FUNCTION", "numeric"}}},
			{match: "information_schema.parameters", rows: [][]any{
				{int64(1), "IN", "p_customer", "integer", nil, int64(32), int64(0)},
				{int64(2), "IN", nil, "character varying", int64(40), nil, nil},
				{int64(3), "VARIADIC", "p_tags", "ARRAY", nil, nil, nil},
			}},
		},
	}

	cmd := conn.discoveryCommand("Sales.Order_Total")
	require.NoError(t, DerivePostgresParameters(context.Background(), cmd))

	require.Len(t, cmd.Parameters, 4)
	rv := cmd.Parameters[0]
	assert.Equal(t, PostgresReturnValueName, rv.Name)
	assert.Equal(t, sphelper.DirectionReturnValue, rv.Direction)
	assert.Equal(t, "numeric", rv.DataType)

	assert.Equal(t, "p_customer", cmd.Parameters[1].Name)
	assert.Equal(t, uint8(0), cmd.Parameters[1].Precision, "precision is kept for numeric only")
	assert.Equal(t, "$2", cmd.Parameters[2].Name)
	assert.Equal(t, 40, cmd.Parameters[2].Size)
	assert.Equal(t, sphelper.DirectionInput, cmd.Parameters[3].Direction)

	require.Len(t, conn.queries, 2)
	assert.Equal(t, []any{"sales", "order_total"}, conn.queries[0].args, "unquoted names fold to lower case")
	assert.Equal(t, []any{"sales", "order_total_16391"}, conn.queries[1].args)
}

func TestDerivePostgresParameters_Procedure(t *testing.T) {
	conn := &catalogConnection{
		driver: sphelper.DriverPostgres,
		answers: []cannedQuery{
			{match: "information_schema.routines", rows: [][]any{{"archive_orders_1", "PROCEDURE", nil}}},
			{match: "information_schema.parameters", rows: [][]any{
				{int64(1), "IN", "p_before", "date", nil, nil, nil},
				{int64(2), "INOUT", "p_moved", "integer", nil, int64(32), int64(0)},
			}},
		},
	}

	cmd := conn.discoveryCommand(`"ArchiveOrders"`)
	require.NoError(t, DerivePostgresParameters(context.Background(), cmd))

	require.Len(t, cmd.Parameters, 2)
	assert.Equal(t, sphelper.DirectionInput, cmd.Parameters[0].Direction)
	assert.Equal(t, sphelper.DirectionInputOutput, cmd.Parameters[1].Direction)
	assert.Equal(t, []any{nil, "ArchiveOrders"}, conn.queries[0].args, "quoted names keep their case")
}

func TestDerivePostgresParameters_NotFoundAndOverloaded(t *testing.T) {
	missing := &catalogConnection{
		driver:  sphelper.DriverPostgres,
		answers: []cannedQuery{{match: "information_schema.routines"}},
	}
	err := DerivePostgresParameters(context.Background(), missing.discoveryCommand("nope"))
	assert.ErrorIs(t, err, sphelper.ErrProcedureNotFound)

	overloaded := &catalogConnection{
		driver: sphelper.DriverPostgres,
		answers: []cannedQuery{{match: "information_schema.routines", rows: [][]any{
			{"f_1", "FUNCTION", "integer"},
			{"f_2", "FUNCTION", "integer"},
		}}},
	}
	err = DerivePostgresParameters(context.Background(), overloaded.discoveryCommand("f"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestDeriveHANAParameters(t *testing.T) {
	conn := &catalogConnection{
		driver: sphelper.DriverHANA,
		answers: []cannedQuery{
			{match: "SYS.PROCEDURES", rows: [][]any{{int64(1)}}},
			{match: "SYS.PROCEDURE_PARAMETERS", rows: [][]any{
				{"IV_CUSTOMER", "IN", "NVARCHAR", int64(10), nil, "TRUE", int64(1)},
				{"EV_TOTAL", "OUT", "DECIMAL", int64(15), int64(2), "TRUE", int64(2)},
				{"CV_COUNT", "INOUT", "INTEGER", int64(10), int64(0), "FALSE", int64(3)},
			}},
		},
	}

	cmd := conn.discoveryCommand("sales.get_orders")
	require.NoError(t, DeriveHANAParameters(context.Background(), cmd))

	require.Len(t, cmd.Parameters, 3)
	assert.Equal(t, 10, cmd.Parameters[0].Size)
	assert.True(t, cmd.Parameters[0].Nullable)
	assert.Equal(t, sphelper.DirectionOutput, cmd.Parameters[1].Direction)
	assert.Equal(t, uint8(15), cmd.Parameters[1].Precision)
	assert.Equal(t, uint8(2), cmd.Parameters[1].Scale)
	assert.Equal(t, sphelper.DirectionInputOutput, cmd.Parameters[2].Direction)
	assert.False(t, cmd.Parameters[2].Nullable)

	assert.Equal(t, []any{"SALES", "GET_ORDERS"}, conn.queries[0].args, "unquoted names fold to upper case")
}

func TestDeriveHANAParameters_NotFound(t *testing.T) {
	conn := &catalogConnection{
		driver:  sphelper.DriverHANA,
		answers: []cannedQuery{{match: "SYS.PROCEDURES", rows: [][]any{{int64(0)}}}},
	}
	err := DeriveHANAParameters(context.Background(), conn.discoveryCommand("MISSING"))
	assert.ErrorIs(t, err, sphelper.ErrProcedureNotFound)
}

func TestDiscovery_RejectsIncompleteCommand(t *testing.T) {
	conn := &catalogConnection{driver: sphelper.DriverSQLServer}
	for name, cmd := range map[string]*sphelper.Command{
		"nil":           nil,
		"no connection": {Text: "dbo.X"},
		"no name":       {Connection: conn},
	} {
		err := DeriveSQLServerParameters(context.Background(), cmd)
		assert.ErrorIs(t, err, sphelper.ErrInvalidArgument, name)
	}
}

func TestSplitQualifiedName(t *testing.T) {
	tests := []struct {
		name       string
		fold       func(string) string
		wantSchema string
		wantObject string
	}{
		{name: "GetOrders", fold: strings.ToLower, wantObject: "getorders"},
		{name: "dbo.GetOrders", fold: strings.ToLower, wantSchema: "dbo", wantObject: "getorders"},
		{name: `"Sales"."Get.Orders"`, fold: strings.ToLower, wantSchema: "Sales", wantObject: "Get.Orders"},
		{name: "[dbo].[Get Orders]", fold: strings.ToUpper, wantSchema: "dbo", wantObject: "Get Orders"},
		{name: "db.dbo.GetOrders", fold: strings.ToUpper, wantSchema: "DBO", wantObject: "GETORDERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, object := splitQualifiedName(tt.name, tt.fold)
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantObject, object)
		})
	}
}
