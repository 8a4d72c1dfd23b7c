package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/sphelper/internal/retry"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// tokenExpiryWarning is the remaining lifetime below which a token is logged.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector connects with a token from a TokenProvider as the
// password. A fresh token is acquired on every attempt.
type TokenBasedConnector struct {
	config   *sphelper.ConnectionConfig
	provider TokenProvider
	executor *retry.Executor
	logger   sphelper.Logger
}

// NewTokenBasedConnector creates a connector for AWS IAM or Azure Entra ID.
func NewTokenBasedConnector(config *sphelper.ConnectionConfig, provider TokenProvider, logger sphelper.Logger) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:   config,
		provider: provider,
		executor: retry.ForConnection(sphelper.DriverPostgres, logger),
		logger:   logger,
	}
}

// Connect implements sphelper.Connector.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.provider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire token from %s: %w", c.provider, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.provider, remaining.Round(time.Second))
		}

		withToken := *c.config
		withToken.Password = token
		pool, err = connectPool(ctx, c.config, BuildPostgresURI(&withToken), c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
