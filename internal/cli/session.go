package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/vvka-141/sphelper/internal/config"
	"github.com/vvka-141/sphelper/internal/db"
	"github.com/vvka-141/sphelper/internal/logging"
	"github.com/vvka-141/sphelper/internal/paramcache"
	"github.com/vvka-141/sphelper/internal/store"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// session bundles what a command needs: configuration, logger, cache store
// and (for commands that talk to the database) an open source.
type session struct {
	project *config.ProjectConfig
	logger  sphelper.Logger
	flush   func()

	store  store.Store
	shared bool
	client *redis.Client

	cache  *paramcache.Cache
	source db.Source
}

// loadProject reads the configuration named by --config, or sphelper.yaml in
// the working directory when present.
func loadProject() (*config.ProjectConfig, error) {
	path := flags.configPath
	if path == "" {
		cfg, err := config.Load(".")
		if errors.Is(err, config.ErrConfigNotFound) {
			return &config.ProjectConfig{}, nil
		}
		return cfg, err
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return config.Load(path)
	}
	cfg, err := config.LoadFile(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("config file %s not found: %w", path, sphelper.ErrInvalidConfig)
	}
	return cfg, err
}

// newSession prepares configuration, logging and the cache. withSource also
// resolves the connection and opens the database source.
func newSession(ctx context.Context, withSource bool) (*session, error) {
	var envFiles []string
	if flags.envFile != "" {
		envFiles = append(envFiles, flags.envFile)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		warnf("%v", err)
	}

	project, err := loadProject()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sphelper.ErrInvalidConfig, err)
	}

	logger, flush, err := logging.New(flags.logFormat, flags.verbose)
	if err != nil {
		return nil, err
	}
	s := &session{project: project, logger: logger, flush: flush}

	if err := s.openStore(ctx); err != nil {
		s.Close()
		return nil, err
	}

	opts := []paramcache.Option{paramcache.WithStore(s.store), paramcache.WithLogger(logger)}
	if flags.singleflight || project.Cache.Singleflight {
		opts = append(opts, paramcache.WithSingleflight())
	}
	s.cache = paramcache.New(opts...)

	if withSource {
		connConfig, err := db.ResolveConnection(flags.connection, db.LoadFromEnvironment(), project)
		if err != nil {
			s.Close()
			return nil, err
		}
		if err := connConfig.Validate(); err != nil {
			s.Close()
			return nil, err
		}
		logger.Verbose("Connecting to %s database %q on %s:%d", connConfig.Driver, connConfig.Database, connConfig.Host, connConfig.Port)

		source, err := db.Open(ctx, connConfig, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.source = source
	}
	return s, nil
}

// openStore uses Redis when an address is configured and a private
// in-memory store otherwise.
func (s *session) openStore(ctx context.Context) error {
	rc := s.project.Cache.Redis
	if flags.redis != "" {
		rc.Address = flags.redis
	}
	if rc.Address == "" {
		s.store = store.NewMemoryStore()
		return nil
	}

	ttl, err := rc.TTLDuration()
	if err != nil {
		return fmt.Errorf("%w: %w", sphelper.ErrInvalidConfig, err)
	}
	client, err := store.DialRedis(ctx, rc.Address, rc.Password, rc.DB)
	if err != nil {
		return fmt.Errorf("%w: %w", sphelper.ErrConnectionFailed, err)
	}

	opts := []store.RedisOption{store.WithTTL(ttl)}
	if rc.Prefix != "" {
		opts = append(opts, store.WithPrefix(rc.Prefix))
	}
	s.client = client
	s.store = store.NewRedisStore(client, opts...)
	s.shared = true
	s.logger.Verbose("Using Redis parameter cache at %s", rc.Address)
	return nil
}

// Close releases the source and the Redis client and flushes the logger.
func (s *session) Close() {
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			s.logger.Error("Failed to close database source: %v", err)
		}
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Error("Failed to close redis client: %v", err)
		}
	}
	if s.flush != nil {
		s.flush()
	}
}

// commandContext applies --timeout, then the configured timeout, then
// sphelper.DefaultCommandTimeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := flags.timeout
	if timeout <= 0 {
		if project, err := loadProject(); err == nil {
			if d, err := project.TimeoutDuration(); err == nil {
				timeout = d
			}
		}
	}
	if timeout <= 0 {
		timeout = sphelper.DefaultCommandTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
