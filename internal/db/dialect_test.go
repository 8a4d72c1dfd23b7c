package db

import (
	"database/sql"
	"testing"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

func ordersParams() []*sphelper.Parameter {
	return []*sphelper.Parameter{
		{Name: "@RETURN_VALUE", Direction: sphelper.DirectionReturnValue, DataType: "int"},
		{Name: "@customerId", Direction: sphelper.DirectionInput, DataType: "int", Position: 1, Value: 42},
		{Name: "@note", Direction: sphelper.DirectionInputOutput, DataType: "nvarchar", Position: 2, Value: "seed"},
		{Name: "@total", Direction: sphelper.DirectionInputOutput, DataType: "decimal", Position: 3},
	}
}

func TestDialectFor(t *testing.T) {
	for _, driver := range []string{sphelper.DriverSQLServer, sphelper.DriverPostgres, sphelper.DriverHANA} {
		d, err := DialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, driver, d.Driver())
	}
	_, err := DialectFor("sqlite")
	assert.ErrorIs(t, err, sphelper.ErrUnsupportedDriver)
}

func TestSQLServerDialect_BuildCall(t *testing.T) {
	params := ordersParams()
	call, err := SQLServerDialect{}.BuildCall("dbo.GetOrders", params)
	require.NoError(t, err)

	assert.Equal(t, "dbo.GetOrders", call.SQL)
	require.Len(t, call.Args, 4)

	status, ok := call.Args[0].(*mssql.ReturnStatus)
	require.True(t, ok)

	customer := call.Args[1].(sql.NamedArg)
	assert.Equal(t, "customerId", customer.Name)
	assert.Equal(t, 42, customer.Value)

	note := call.Args[2].(sql.NamedArg)
	assert.Equal(t, "note", note.Name)
	noteOut := note.Value.(sql.Out)
	assert.True(t, noteOut.In, "a seeded InputOutput value is sent to the server")
	assert.Equal(t, &sql.NullString{String: "seed", Valid: true}, noteOut.Dest)

	totalOut := call.Args[3].(sql.NamedArg).Value.(sql.Out)
	assert.False(t, totalOut.In)

	*status = 3
	*noteOut.Dest.(*sql.NullString) = sql.NullString{String: "changed", Valid: true}
	call.ReadBack()

	assert.Equal(t, int32(3), params[0].Value)
	assert.Equal(t, "changed", params[2].Value)
	assert.Nil(t, params[3].Value, "an unset output reads back as nil")
}

func TestSQLServerDialect_RejectsBatchText(t *testing.T) {
	for _, name := range []string{"dbo.GetOrders; DROP TABLE x", "exec dbo.GetOrders"} {
		_, err := SQLServerDialect{}.BuildCall(name, nil)
		assert.ErrorIs(t, err, sphelper.ErrInvalidArgument, name)
	}
}

func TestPostgresDialect_BuildCall(t *testing.T) {
	tests := []struct {
		name       string
		params     []*sphelper.Parameter
		wantSQL    string
		wantArgs   []any
		wantScalar bool
		wantOutRow bool
	}{
		{
			name: "scalar function",
			params: []*sphelper.Parameter{
				{Name: PostgresReturnValueName, Direction: sphelper.DirectionReturnValue, DataType: "numeric"},
				{Name: "p_customer", Direction: sphelper.DirectionInput, Value: 7},
			},
			wantSQL: "SELECT * FROM sales.order_total($1)", wantArgs: []any{7}, wantScalar: true,
		},
		{
			name: "set returning function",
			params: []*sphelper.Parameter{
				{Name: PostgresReturnValueName, Direction: sphelper.DirectionReturnValue, DataType: "record"},
				{Name: "p_customer", Direction: sphelper.DirectionInput, Value: 7},
				{Name: "o_total", Direction: sphelper.DirectionOutput},
			},
			wantSQL: "SELECT * FROM sales.order_total($1)", wantArgs: []any{7},
		},
		{
			name: "procedure with inout",
			params: []*sphelper.Parameter{
				{Name: "p_before", Direction: sphelper.DirectionInput, Value: "2024-01-01"},
				{Name: "p_moved", Direction: sphelper.DirectionInputOutput},
			},
			wantSQL: "CALL sales.order_total($1, $2)", wantArgs: []any{"2024-01-01", nil}, wantOutRow: true,
		},
		{
			name:    "procedure without arguments",
			wantSQL: "CALL sales.order_total()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := PostgresDialect{}.BuildCall("sales.order_total", tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, call.SQL)
			assert.Equal(t, tt.wantArgs, call.Args)
			assert.Equal(t, tt.wantScalar, call.ScalarResult)
			assert.Equal(t, tt.wantOutRow, call.OutputRow)
		})
	}
}

func TestHANADialect_BuildCall(t *testing.T) {
	params := []*sphelper.Parameter{
		{Name: "IV_CUSTOMER", Direction: sphelper.DirectionInput, DataType: "NVARCHAR", Value: "C1"},
		{Name: "EV_TOTAL", Direction: sphelper.DirectionOutput, DataType: "DECIMAL"},
		{Name: "CV_COUNT", Direction: sphelper.DirectionInputOutput, DataType: "INTEGER", Value: int64(2)},
	}

	call, err := HANADialect{}.BuildCall("SALES.GET_ORDERS", params)
	require.NoError(t, err)
	assert.Equal(t, "CALL SALES.GET_ORDERS(?, ?, ?)", call.SQL)
	require.Len(t, call.Args, 3)
	assert.Equal(t, "C1", call.Args[0])

	count := call.Args[2].(sql.NamedArg).Value.(sql.Out)
	assert.True(t, count.In)
	dest := count.Dest.(*sql.NullInt64)
	assert.Equal(t, int64(2), dest.Int64)

	dest.Int64 = 5
	call.ReadBack()
	assert.Equal(t, int64(5), params[2].Value)
	assert.Nil(t, params[1].Value)
}

func TestOutputArg_Binary(t *testing.T) {
	p := &sphelper.Parameter{Name: "@blob", Direction: sphelper.DirectionInputOutput, DataType: "varbinary", Value: []byte{1, 2}}
	out, err := outputArg(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, *out.Dest.(*[]byte))

	p.Value = "not bytes"
	_, err = outputArg(p)
	assert.ErrorIs(t, err, sphelper.ErrInvalidArgument)
}

func TestDialect_TextArgs(t *testing.T) {
	params := []*sphelper.Parameter{
		{Name: "@id", Direction: sphelper.DirectionInput, Value: 1},
		{Name: "@name", Direction: sphelper.DirectionInput, Value: "x"},
	}

	assert.Equal(t, []any{sql.Named("id", 1), sql.Named("name", "x")}, SQLServerDialect{}.TextArgs(params))
	assert.Equal(t, []any{1, "x"}, PostgresDialect{}.TextArgs(params))
	assert.Equal(t, []any{1, "x"}, HANADialect{}.TextArgs(params))
}
