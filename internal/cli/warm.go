package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sphelper/internal/db"
	"github.com/vvka-141/sphelper/internal/paramcache"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

var warmCmd = &cobra.Command{
	Use:   "warm [procedure...]",
	Short: "Discover procedures ahead of time and seed the cache",
	Long: `Discover every listed procedure (or the warm list of sphelper.yaml)
and store its shape. With a Redis cache this lets other processes skip
discovery entirely.

Failures are reported per procedure; the command fails if any did.`,
	RunE: runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)
}

type warmEntry struct {
	Procedure  string `json:"procedure" yaml:"procedure"`
	Parameters int    `json:"parameters" yaml:"parameters"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

type warmOutput struct {
	Procedures []warmEntry      `json:"procedures" yaml:"procedures"`
	Stats      paramcache.Stats `json:"stats" yaml:"stats"`
	Elapsed    string           `json:"elapsed" yaml:"elapsed"`
}

// warmTargets returns the procedures named on the command line, or the
// configured warm list.
func warmTargets(args []string, configured []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(configured) > 0 {
		return configured, nil
	}
	return nil, fmt.Errorf("no procedures to warm (pass names or set warm: in sphelper.yaml): %w", sphelper.ErrInvalidArgument)
}

func runWarm(cmd *cobra.Command, args []string) error {
	project, err := loadProject()
	if err != nil {
		return fmt.Errorf("%w: %w", sphelper.ErrInvalidConfig, err)
	}
	targets, err := warmTargets(args, project.Warm)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := newSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	discover, err := db.DiscoverFor(s.source.Driver())
	if err != nil {
		return err
	}
	dialect, err := db.DialectFor(s.source.Driver())
	if err != nil {
		return err
	}

	start := time.Now()
	out := warmOutput{Procedures: make([]warmEntry, 0, len(targets))}
	var errs []error
	for _, proc := range targets {
		entry := warmEntry{Procedure: proc}
		params, err := s.cache.GetSpParameterSet(ctx, s.source, discover, proc, dialect.IncludesReturnValue())
		if err != nil {
			entry.Error = err.Error()
			errs = append(errs, err)
		} else {
			entry.Parameters = len(params)
		}
		out.Procedures = append(out.Procedures, entry)
	}
	out.Stats = s.cache.Stats()
	out.Elapsed = time.Since(start).Round(time.Millisecond).String()

	err = render(cmd.OutOrStdout(), flags.output, out, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "PROCEDURE\tPARAMETERS\tSTATUS")
		for _, e := range out.Procedures {
			status := "ok"
			if e.Error != "" {
				status = e.Error
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Procedure, e.Parameters, status)
		}
		fmt.Fprintf(tw, "\ndiscovered %d, cache hits %d, failed %d in %s\n",
			out.Stats.Discoveries, out.Stats.Hits, out.Stats.Failures, out.Elapsed)
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}
