package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	connection   string
	configPath   string
	envFile      string
	redis        string
	output       string
	logFormat    string
	timeout      time.Duration
	singleflight bool
	verbose      bool
}

var flags = defaultFlags()

func defaultFlags() globalFlags {
	return globalFlags{output: outputAuto, logFormat: "text"}
}

var rootCmd = &cobra.Command{
	Use:   "sphelper",
	Short: "Stored-procedure parameter discovery and execution",
	Long: `sphelper discovers the parameters of stored procedures on SQL Server,
PostgreSQL and SAP HANA, caches their shapes per connection, and executes
procedures with values bound positionally or by name.

Discovered shapes can be shared between processes through Redis
(--redis or cache.redis.address in sphelper.yaml).

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Parameter discovery failed
  13 - Procedure execution failed
  14 - Procedure not found`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(rootCmd.OutOrStdout())
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.connection, "connection", "c", "", "Connection string (URI or ADO.NET form)")
	pf.StringVar(&flags.configPath, "config", "", "Path to sphelper.yaml or the directory containing it")
	pf.StringVar(&flags.envFile, "env-file", "", "Dotenv file to load (default: .env when present)")
	pf.StringVar(&flags.redis, "redis", "", "Redis address for the shared parameter cache (host:port)")
	pf.StringVarP(&flags.output, "output", "o", outputAuto, "Output format: auto, table, json or yaml")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Overall command timeout (default 30s)")
	pf.BoolVar(&flags.singleflight, "singleflight", false, "Collapse concurrent discoveries of the same procedure")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
}

// warnf prints a non-fatal problem to stderr.
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
