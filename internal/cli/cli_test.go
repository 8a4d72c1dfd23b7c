package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/sphelper/internal/sqlhelper"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// isolate resets global flags and runs the test in an empty directory
// without connection environment variables.
func isolate(t *testing.T) {
	t.Helper()
	flags = defaultFlags()
	execFlags.params, execFlags.nonQuery = nil, false
	describeReturnValue = false
	t.Cleanup(func() { flags = defaultFlags() })

	for _, name := range []string{"SPHELPER_CONNECTION_STRING", "DATABASE_URL", "SPHELPER_PASSWORD"} {
		t.Setenv(name, "")
	}
	t.Chdir(t.TempDir())
}

func TestCommandArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		cmd  *cobra.Command
		args []string
	}{
		{name: "describe without procedure", cmd: describeCmd},
		{name: "describe with two procedures", cmd: describeCmd, args: []string{"a", "b"}},
		{name: "exec without procedure", cmd: execCmd},
		{name: "cache list with argument", cmd: cacheListCmd, args: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Args(tt.cmd, tt.args)
			require.Error(t, err)
			assert.Equal(t, sphelper.ExitUsageError, sphelper.ExitCodeForError(err), err.Error())
		})
	}
}

func TestResolveOutput(t *testing.T) {
	var buf bytes.Buffer

	got, err := resolveOutput("auto", &buf)
	require.NoError(t, err)
	assert.Equal(t, outputJSON, got, "non-terminal writers get JSON")

	for _, f := range []string{"table", "JSON", "yaml"} {
		got, err := resolveOutput(f, &buf)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(f), got)
	}

	_, err = resolveOutput("xml", &buf)
	assert.ErrorIs(t, err, sphelper.ErrInvalidArgument)
}

func sampleDescribe() describeOutput {
	return describeOutput{
		Procedure: "dbo.GetOrders",
		Driver:    sphelper.DriverSQLServer,
		Identity:  "id-1",
		Parameters: []*sphelper.Parameter{
			{Name: "@RETURN_VALUE", Direction: sphelper.DirectionReturnValue, DataType: "int"},
			{Name: "@customerId", Direction: sphelper.DirectionInput, DataType: "int", Position: 1},
			{Name: "@note", Direction: sphelper.DirectionInputOutput, DataType: "nvarchar", Size: -1, Nullable: true, Position: 2},
			{Name: "@total", Direction: sphelper.DirectionInputOutput, DataType: "decimal", Precision: 18, Scale: 2, Position: 3},
		},
	}
}

func TestRender_Describe(t *testing.T) {
	out := sampleDescribe()
	table := func(tw *tabwriter.Writer) { writeParameterTable(tw, out.Parameters) }

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, outputJSON, out, table))

		var decoded describeOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, out, decoded)
		assert.Contains(t, buf.String(), `"direction": "InputOutput"`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, outputYAML, out, table))

		var decoded describeOutput
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, out, decoded)
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render(&buf, outputTable, out, table))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 5)
		assert.True(t, strings.HasPrefix(lines[0], "#"))
		assert.Contains(t, lines[3], "max")
		assert.Contains(t, lines[4], "18,2")
	})
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		dataType string
		in       string
		want     any
		wantErr  bool
	}{
		{dataType: "int", in: "42", want: int64(42)},
		{dataType: "INTEGER", in: "-7", want: int64(-7)},
		{dataType: "bit", in: "true", want: true},
		{dataType: "double precision", in: "1.5", want: 1.5},
		{dataType: "decimal", in: "10.25", want: "10.25"},
		{dataType: "nvarchar", in: "00123", want: "00123"},
		{dataType: "int", in: "NULL", want: nil},
		{dataType: "int", in: "abc", wantErr: true},
		{dataType: "boolean", in: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dataType+"/"+tt.in, func(t *testing.T) {
			got, err := coerce(tt.dataType, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func execTemplate() []*sphelper.Parameter {
	return []*sphelper.Parameter{
		{Name: "@RETURN_VALUE", Direction: sphelper.DirectionReturnValue, DataType: "int"},
		{Name: "@customerId", Direction: sphelper.DirectionInput, DataType: "int"},
		{Name: "@since", Direction: sphelper.DirectionInput, DataType: "date"},
	}
}

func TestExecBinder(t *testing.T) {
	t.Run("positional", func(t *testing.T) {
		bind, err := execBinder([]string{"42", "2024-01-01"}, nil)
		require.NoError(t, err)
		params := execTemplate()
		require.NoError(t, bind(params))
		assert.Equal(t, int64(42), params[1].Value)
		assert.Equal(t, "2024-01-01", params[2].Value)
		assert.Nil(t, params[0].Value)
	})

	t.Run("named", func(t *testing.T) {
		bind, err := execBinder(nil, []string{"customerid=7", " since =NULL"})
		require.NoError(t, err)
		params := execTemplate()
		require.NoError(t, bind(params))
		assert.Equal(t, int64(7), params[1].Value)
		assert.Nil(t, params[2].Value)
	})

	t.Run("conversion error", func(t *testing.T) {
		bind, err := execBinder([]string{"forty-two", "2024-01-01"}, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, bind(execTemplate()), sphelper.ErrInvalidArgument)
	})

	t.Run("count mismatch", func(t *testing.T) {
		bind, err := execBinder([]string{"1"}, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, bind(execTemplate()), sphelper.ErrParameterCountMismatch)
	})

	t.Run("invalid flags", func(t *testing.T) {
		_, err := execBinder([]string{"1"}, []string{"a=1"})
		assert.ErrorIs(t, err, sphelper.ErrInvalidArgument)

		_, err = execBinder(nil, []string{"novalue"})
		assert.ErrorIs(t, err, sphelper.ErrInvalidArgument)
	})
}

func TestNewExecOutput(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	res := &sqlhelper.Result{
		RowsAffected: -1,
		ReturnValue:  int32(0),
		Output:       map[string]any{"note": []byte("done")},
		ResultSets: []sqlhelper.ResultSet{{
			Columns: []string{"id", "created", "blob"},
			Rows:    []map[string]any{{"id": int64(1), "created": when, "blob": []byte{0xff, 0x00}}},
		}},
	}

	out := newExecOutput("dbo.GetOrders", res)
	assert.Equal(t, "done", out.Output["note"])
	row := out.ResultSets[0].Rows[0]
	assert.Equal(t, "2024-05-01T12:00:00Z", row["created"])
	assert.Equal(t, map[string]any{"type": "bytes", "base64": "/wA="}, row["blob"])
	assert.Equal(t, []byte("done"), res.Output["note"], "the original result is untouched")

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	writeExecTables(tw, out)
	require.NoError(t, tw.Flush())
	assert.Contains(t, buf.String(), "(1 rows)")
	assert.Contains(t, buf.String(), "return value: 0")
	assert.NotContains(t, buf.String(), "rows affected")
}

func TestWarmTargets(t *testing.T) {
	got, err := warmTargets([]string{"a"}, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	got, err = warmTargets(nil, []string{"b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got)

	_, err = warmTargets(nil, nil)
	assert.ErrorIs(t, err, sphelper.ErrInvalidArgument)
}

func TestRunWarm_NothingToWarm(t *testing.T) {
	isolate(t)
	err := runWarm(warmCmd, nil)
	assert.ErrorIs(t, err, sphelper.ErrInvalidArgument)
}

func TestRunDescribe_NoConnection(t *testing.T) {
	isolate(t)
	err := runDescribe(describeCmd, []string{"dbo.GetOrders"})
	assert.ErrorIs(t, err, sphelper.ErrInvalidConfig)
	assert.Equal(t, sphelper.ExitConfigError, sphelper.ExitCodeForError(err))
}

func TestRunExec_InvalidConnection(t *testing.T) {
	isolate(t)
	flags.connection = "Provider=oracle;Server=x"
	err := runExec(execCmd, []string{"dbo.GetOrders"})
	assert.ErrorIs(t, err, sphelper.ErrUnsupportedDriver)
}

func TestCacheCommands_RequireRedis(t *testing.T) {
	isolate(t)
	assert.ErrorIs(t, runCacheList(cacheListCmd, nil), sphelper.ErrInvalidConfig)
	assert.ErrorIs(t, runCacheClear(cacheClearCmd, nil), sphelper.ErrInvalidConfig)
}

func TestLoadProject(t *testing.T) {
	isolate(t)

	cfg, err := loadProject()
	require.NoError(t, err)
	assert.Empty(t, cfg.Warm, "no sphelper.yaml means an empty config")

	dir := t.TempDir()
	yml := "connection:\n  driver: postgres\n  host: db\nwarm:\n  - public.refresh\ntimeout: 5s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sphelper.yaml"), []byte(yml), 0o644))

	flags.configPath = dir
	cfg, err = loadProject()
	require.NoError(t, err)
	assert.Equal(t, []string{"public.refresh"}, cfg.Warm)

	flags.configPath = filepath.Join(dir, "sphelper.yaml")
	cfg, err = loadProject()
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Connection.Host)

	flags.configPath = filepath.Join(dir, "missing.yaml")
	_, err = loadProject()
	assert.ErrorIs(t, err, sphelper.ErrInvalidConfig)
}

func TestCommandContext_Timeout(t *testing.T) {
	isolate(t)

	flags.timeout = 2 * time.Second
	ctx, cancel := commandContext(versionCmd)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)

	flags.timeout = 0
	ctx2, cancel2 := commandContext(versionCmd)
	defer cancel2()
	deadline, ok = ctx2.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(sphelper.DefaultCommandTimeout), deadline, time.Second)
}

func TestPrintVersionInfo(t *testing.T) {
	original := version
	defer func() { version = original }()

	version = "1.2.3"
	var buf bytes.Buffer
	printVersionInfo(&buf)
	assert.True(t, strings.HasPrefix(buf.String(), "sphelper 1.2.3 ("), buf.String())
}
