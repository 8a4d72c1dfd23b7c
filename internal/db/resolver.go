package db

import (
	"fmt"
	"os"

	"github.com/vvka-141/sphelper/internal/config"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// EnvVars holds the environment variables that take part in connection
// resolution.
type EnvVars struct {
	ConnectionString string // SPHELPER_CONNECTION_STRING
	DatabaseURL      string // DATABASE_URL (Heroku/Rails convention)
	Password         string // SPHELPER_PASSWORD

	AWSRegion string // AWS_REGION

	// Azure SDK standard names.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		ConnectionString:  os.Getenv("SPHELPER_CONNECTION_STRING"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Password:          os.Getenv("SPHELPER_PASSWORD"),
		AWSRegion:         os.Getenv("AWS_REGION"),
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnection picks the connection settings with this precedence:
//
//  1. --connection flag
//  2. $SPHELPER_CONNECTION_STRING
//  3. $DATABASE_URL
//  4. connection.connection_string in sphelper.yaml
//  5. connection fields in sphelper.yaml
//
// Environment variables then fill gaps the chosen source left open
// (password, AWS region, Azure credentials).
func ResolveConnection(connFlag string, env *EnvVars, project *config.ProjectConfig) (*sphelper.ConnectionConfig, error) {
	if env == nil {
		env = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if project != nil {
		pc = project.Connection
	}

	var (
		cfg *sphelper.ConnectionConfig
		err error
	)
	switch {
	case connFlag != "":
		cfg, err = ParseConnectionString(connFlag)
	case env.ConnectionString != "":
		cfg, err = ParseConnectionString(env.ConnectionString)
	case env.DatabaseURL != "":
		cfg, err = ParseConnectionString(env.DatabaseURL)
	case pc.ConnectionString != "":
		cfg, err = ParseConnectionString(pc.ConnectionString)
	case !pc.IsEmpty():
		cfg, err = fromProjectConfig(pc)
	default:
		return nil, fmt.Errorf("no connection configured (use --connection, $SPHELPER_CONNECTION_STRING, $DATABASE_URL or %s): %w",
			config.ConfigFileName, sphelper.ErrInvalidConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	applyEnvironment(cfg, env)
	return cfg, nil
}

// fromProjectConfig builds a config from the field-by-field form.
func fromProjectConfig(pc config.ConnectionConfig) (*sphelper.ConnectionConfig, error) {
	driver := pc.Driver
	if driver == "" {
		driver = sphelper.DriverSQLServer
	}
	driver, err := NormalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	method, err := sphelper.ParseAuthMethod(pc.AuthMethod)
	if err != nil {
		return nil, err
	}

	cfg := newConfig(driver)
	if pc.Host != "" {
		cfg.Host = pc.Host
	}
	if pc.Port != 0 {
		cfg.Port = pc.Port
	}
	if pc.Database != "" {
		cfg.Database = pc.Database
	}
	if pc.SSLMode != "" {
		cfg.SSLMode = pc.SSLMode
	}
	if pc.Instance != "" {
		cfg.AdditionalParams["instance"] = pc.Instance
	}
	cfg.Username = pc.Username
	cfg.AppName = pc.AppName
	cfg.AuthMethod = method
	cfg.AzureTenantID = pc.AzureTenantID
	cfg.AzureClientID = pc.AzureClientID
	cfg.AWSRegion = pc.AWSRegion
	cfg.GoogleInstance = pc.GoogleInstance
	return cfg, nil
}

func applyEnvironment(cfg *sphelper.ConnectionConfig, env *EnvVars) {
	if cfg.Password == "" && cfg.AuthMethod == sphelper.AuthMethodStandard {
		cfg.Password = env.Password
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = env.AWSRegion
	}
	if cfg.AuthMethod == sphelper.AuthMethodAzureEntraID {
		if cfg.AzureTenantID == "" {
			cfg.AzureTenantID = env.AzureTenantID
		}
		if cfg.AzureClientID == "" {
			cfg.AzureClientID = env.AzureClientID
		}
		// The client secret only ever comes from the environment.
		cfg.AzureClientSecret = env.AzureClientSecret
	}
}
