// Package retry retries connection establishment against transient failures.
//
// An Executor pairs an ErrorClassifier, which decides whether a failure is
// worth another attempt, with a BackoffStrategy that spaces the attempts:
//
//	executor := retry.NewExecutor(retry.ForDriver(cfg.Driver), retry.DefaultBackoff())
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return conn.PingContext(ctx)
//	})
//
// Classifiers exist for PostgreSQL (pgconn error codes), SQL Server
// (mssql error numbers) and SAP HANA (hdb error codes). All of them treat
// refused, reset and unreachable network connections as transient.
//
// Parameter discovery and procedure execution are never retried here; only
// opening a session is.
package retry
