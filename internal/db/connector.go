package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/sphelper/internal/retry"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// PostgreSQL pool configuration.
const (
	DefaultMaxConns        = 10
	DefaultMinConns        = 0
	DefaultMaxConnIdleTime = 5 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger sphelper.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
}

// connectPool parses connStr, opens a pool and pings it once.
func connectPool(ctx context.Context, cfg *sphelper.ConnectionConfig, connStr string, logger sphelper.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, cfg)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, cfg)
	}
	return pool, nil
}

// StandardConnector connects with username/password authentication,
// retrying transient failures.
type StandardConnector struct {
	config   *sphelper.ConnectionConfig
	executor *retry.Executor
	logger   sphelper.Logger
}

// NewStandardConnector creates a StandardConnector using the default
// PostgreSQL retry policy.
func NewStandardConnector(config *sphelper.ConnectionConfig, logger sphelper.Logger) *StandardConnector {
	return &StandardConnector{
		config:   config,
		executor: retry.ForConnection(sphelper.DriverPostgres, logger),
		logger:   logger,
	}
}

// Connect implements sphelper.Connector.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildPostgresURI(c.config)

	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = connectPool(ctx, c.config, connStr, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector picks the Connector for config.AuthMethod.
func NewConnector(config *sphelper.ConnectionConfig, logger sphelper.Logger) (sphelper.Connector, error) {
	switch config.AuthMethod {
	case sphelper.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case sphelper.AuthMethodAWSIAM:
		endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)
		provider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	case sphelper.AuthMethodAzureEntraID:
		provider, err := NewAzureTokenProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, err
		}
		return NewTokenBasedConnector(config, provider, logger), nil
	case sphelper.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires an instance (project:region:instance): %w", sphelper.ErrInvalidConfig)
		}
		if config.Username == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires a username: %w", sphelper.ErrInvalidConfig)
		}
		return NewGoogleCloudSQLConnector(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, sphelper.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError adds a hint for the common causes of a failed connect.
// The result always matches sphelper.ErrConnectionFailed.
func wrapConnectionError(err error, cfg *sphelper.ConnectionConfig) error {
	msg := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var hint string
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "actively refused"):
		hint = fmt.Sprintf("connection refused to %s (is the server running and listening on that port?)", addr)
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "no host"):
		hint = fmt.Sprintf("cannot resolve host %q", cfg.Host)
	case strings.Contains(msg, "password authentication failed") || strings.Contains(msg, "login failed"):
		hint = fmt.Sprintf("authentication failed for user %q on database %q", cfg.Username, cfg.Database)
	case strings.Contains(msg, "does not exist") || strings.Contains(msg, "cannot open database"):
		hint = fmt.Sprintf("database %q does not exist or is not accessible", cfg.Database)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		hint = fmt.Sprintf("connection timed out to %s", addr)
	case strings.Contains(msg, "ssl") || strings.Contains(msg, "tls"):
		hint = "SSL/TLS negotiation failed (check sslmode/encrypt)"
	case strings.Contains(msg, "too many connections"):
		hint = fmt.Sprintf("too many connections to database %q", cfg.Database)
	default:
		hint = fmt.Sprintf("failed to connect to %s", addr)
	}
	return fmt.Errorf("%s: %w: %w", hint, sphelper.ErrConnectionFailed, err)
}
