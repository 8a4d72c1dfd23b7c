// Package sqlhelper prepares and runs stored-procedure calls on top of the
// parameter-set cache.
//
// Every call asks the cache for the procedure's parameter template, binds the
// caller's values (positionally, from a struct, or from a row map), renders
// the provider-specific call through a db.Dialect, and runs it on a fresh
// connection that is closed before the call returns.
//
//	h, err := sqlhelper.New(source)
//	res, err := h.ExecuteQuery(ctx, "dbo.GetOrders", 42, time.Now().AddDate(0, -1, 0))
//	total := res.Output["total"]
package sqlhelper
