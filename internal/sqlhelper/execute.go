package sqlhelper

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/sphelper/internal/db"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

type execMode int

const (
	modeNonQuery execMode = iota
	modeQuery
)

// Parameters returns a fresh copy of the procedure's parameter template as
// the helper's dialect needs it.
func (h *Helper) Parameters(ctx context.Context, procedure string) ([]*sphelper.Parameter, error) {
	return h.cache.GetSpParameterSet(ctx, h.source, h.discover, procedure, h.dialect.IncludesReturnValue())
}

// ExecuteNonQuery runs procedure with positional values and reports rows
// affected, output parameters and the return value.
func (h *Helper) ExecuteNonQuery(ctx context.Context, procedure string, values ...any) (*Result, error) {
	return h.ExecuteNonQueryWith(ctx, procedure, FromValues(values...))
}

// ExecuteNonQueryWithStruct binds obj's fields by name.
func (h *Helper) ExecuteNonQueryWithStruct(ctx context.Context, procedure string, obj any) (*Result, error) {
	return h.ExecuteNonQueryWith(ctx, procedure, FromStruct(obj))
}

// ExecuteNonQueryWithRow binds row's columns by name.
func (h *Helper) ExecuteNonQueryWithRow(ctx context.Context, procedure string, row map[string]any) (*Result, error) {
	return h.ExecuteNonQueryWith(ctx, procedure, FromRow(row))
}

// ExecuteNonQueryWith runs procedure with a custom Binder.
func (h *Helper) ExecuteNonQueryWith(ctx context.Context, procedure string, bind Binder) (*Result, error) {
	return h.run(ctx, procedure, bind, modeNonQuery)
}

// ExecuteQuery runs procedure with positional values and returns every result set.
func (h *Helper) ExecuteQuery(ctx context.Context, procedure string, values ...any) (*Result, error) {
	return h.ExecuteQueryWith(ctx, procedure, FromValues(values...))
}

// ExecuteQueryWithStruct binds obj's fields by name.
func (h *Helper) ExecuteQueryWithStruct(ctx context.Context, procedure string, obj any) (*Result, error) {
	return h.ExecuteQueryWith(ctx, procedure, FromStruct(obj))
}

// ExecuteQueryWithRow binds row's columns by name.
func (h *Helper) ExecuteQueryWithRow(ctx context.Context, procedure string, row map[string]any) (*Result, error) {
	return h.ExecuteQueryWith(ctx, procedure, FromRow(row))
}

// ExecuteQueryWith runs procedure with a custom Binder.
func (h *Helper) ExecuteQueryWith(ctx context.Context, procedure string, bind Binder) (*Result, error) {
	return h.run(ctx, procedure, bind, modeQuery)
}

// ExecuteScalar runs procedure and returns the first column of the first
// row, or nil when it produced no rows.
func (h *Helper) ExecuteScalar(ctx context.Context, procedure string, values ...any) (any, error) {
	return h.ExecuteScalarWith(ctx, procedure, FromValues(values...))
}

// ExecuteScalarWith runs procedure with a custom Binder and returns its scalar.
func (h *Helper) ExecuteScalarWith(ctx context.Context, procedure string, bind Binder) (any, error) {
	res, err := h.run(ctx, procedure, bind, modeQuery)
	if err != nil {
		return nil, err
	}
	return res.Scalar(), nil
}

// ExecuteText runs ad-hoc command text with explicitly supplied input
// parameters and remembers their shape under the text, so later calls can
// use ExecuteCachedText with plain values.
func (h *Helper) ExecuteText(ctx context.Context, text string, params ...*sphelper.Parameter) (*Result, error) {
	if text == "" {
		return nil, fmt.Errorf("command text is required: %w", sphelper.ErrInvalidArgument)
	}
	for _, p := range params {
		if p != nil && p.Direction != sphelper.DirectionInput {
			return nil, fmt.Errorf("text parameter %s: only input parameters are supported: %w", p.Name, sphelper.ErrInvalidArgument)
		}
	}
	if err := h.cache.CacheParameterSet(ctx, h.source.Identity(), text, params...); err != nil {
		return nil, err
	}
	return h.runText(ctx, text, params)
}

// ExecuteCachedText runs command text whose shape an earlier ExecuteText
// call cached, binding values positionally.
func (h *Helper) ExecuteCachedText(ctx context.Context, text string, values ...any) (*Result, error) {
	params, err := h.cache.GetCachedParameterSet(ctx, h.source.Identity(), text)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("no cached parameter set for %q: %w", text, sphelper.ErrInvalidArgument)
	}
	if err := AssignParameterValues(params, values...); err != nil {
		return nil, err
	}
	return h.runText(ctx, text, params)
}

func (h *Helper) runText(ctx context.Context, text string, params []*sphelper.Parameter) (*Result, error) {
	call := &db.Call{SQL: text, Args: h.dialect.TextArgs(params)}
	res, err := h.invoke(ctx, text, call, modeQuery)
	if err != nil {
		return nil, err
	}
	res.Parameters = params
	return res, nil
}

func (h *Helper) run(ctx context.Context, procedure string, bind Binder, mode execMode) (*Result, error) {
	params, err := h.Parameters(ctx, procedure)
	if err != nil {
		return nil, err
	}
	if bind != nil {
		if err := bind(params); err != nil {
			return nil, err
		}
	}

	call, err := h.dialect.BuildCall(procedure, params)
	if err != nil {
		return nil, err
	}
	res, err := h.invoke(ctx, procedure, call, mode)
	if err != nil {
		return nil, err
	}
	collectOutputs(res, call, params)
	return res, nil
}

// invoke runs call on a fresh connection that is closed before returning.
func (h *Helper) invoke(ctx context.Context, name string, call *db.Call, mode execMode) (*Result, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	conn, err := h.source.CreateConnection()
	if err != nil {
		return nil, fmt.Errorf("create connection: %w: %w", sphelper.ErrConnectionFailed, err)
	}
	if err := conn.Open(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			h.logger.Error("Failed to close connection after %s: %v", name, err)
		}
	}()

	start := time.Now()
	res := &Result{RowsAffected: -1}

	if mode == modeNonQuery && !call.OutputRow && !call.ScalarResult {
		n, err := conn.Exec(ctx, call.SQL, call.Args...)
		if err != nil {
			return nil, executionError(name, err)
		}
		res.RowsAffected = n
	} else {
		rows, err := conn.Query(ctx, call.SQL, call.Args...)
		if err != nil {
			return nil, executionError(name, err)
		}
		sets, err := scanResultSets(rows)
		if closeErr := rows.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, executionError(name, err)
		}
		res.ResultSets = sets
	}

	// Output values are only final once the rows are closed.
	call.ReadBack()
	h.logger.Verbose("Executed %s in %v", name, time.Since(start).Round(time.Millisecond))
	return res, nil
}

// collectOutputs fills Output and ReturnValue from the bound parameters.
// Calls that return their outputs as a row have that row moved out of
// ResultSets and into the parameters first.
func collectOutputs(res *Result, call *db.Call, params []*sphelper.Parameter) {
	if call.OutputRow && len(res.ResultSets) > 0 {
		last := res.ResultSets[len(res.ResultSets)-1]
		if len(last.Rows) == 1 {
			for col, v := range last.Rows[0] {
				if p := sphelper.FindParameter(params, col); p != nil && p.Direction.IsOutput() {
					p.Value = v
				}
			}
			res.ResultSets = res.ResultSets[:len(res.ResultSets)-1]
		}
	}

	for _, p := range params {
		switch p.Direction {
		case sphelper.DirectionOutput, sphelper.DirectionInputOutput:
			if res.Output == nil {
				res.Output = make(map[string]any)
			}
			res.Output[p.BareName()] = p.Value
		case sphelper.DirectionReturnValue:
			res.ReturnValue = p.Value
		}
	}
	if call.ScalarResult {
		res.ReturnValue = res.Scalar()
	}
	res.Parameters = params
}

func executionError(name string, err error) error {
	return fmt.Errorf("execute %s: %w: %w", name, sphelper.ErrExecutionFailed, err)
}
