package cli

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the shared parameter cache",
	Long: `Inspect or clear the Redis-backed parameter cache configured with
--redis or cache.redis in sphelper.yaml. Without Redis every process has its
own in-memory cache and there is nothing to inspect.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached parameter-set keys",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached parameter set",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

type cacheListOutput struct {
	Keys  []string `json:"keys" yaml:"keys"`
	Count int      `json:"count" yaml:"count"`
}

// sharedSession opens a session without a database and insists on Redis.
func sharedSession(cmd *cobra.Command) (context.Context, *session, func(), error) {
	ctx, cancel := commandContext(cmd)
	s, err := newSession(ctx, false)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	if !s.shared {
		s.Close()
		cancel()
		return nil, nil, nil, fmt.Errorf("no shared cache configured (use --redis or cache.redis.address): %w", sphelper.ErrInvalidConfig)
	}
	return ctx, s, func() { s.Close(); cancel() }, nil
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	ctx, s, done, err := sharedSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	keys, err := s.cache.Keys(ctx)
	if err != nil {
		return err
	}
	sort.Strings(keys)

	out := cacheListOutput{Keys: keys, Count: len(keys)}
	return render(cmd.OutOrStdout(), flags.output, out, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "KEY")
		for _, k := range keys {
			fmt.Fprintln(tw, k)
		}
		fmt.Fprintf(tw, "(%d keys)\n", len(keys))
	})
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	ctx, s, done, err := sharedSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	n, err := s.cache.Len(ctx)
	if err != nil {
		return err
	}
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Cleared %d cached parameter sets\n", n)
	return nil
}
