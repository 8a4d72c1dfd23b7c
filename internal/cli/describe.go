package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sphelper/internal/db"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

var describeReturnValue bool

var describeCmd = &cobra.Command{
	Use:   "describe <procedure>",
	Short: "Discover and print the parameters of a stored procedure",
	Long: `Discover the parameters of a stored procedure and print them in
declaration order. The shape is cached, so a configured Redis cache is
seeded as a side effect.

Examples:
  sphelper describe dbo.GetOrders -c "Server=localhost;Database=Sales;User Id=sa"
  sphelper describe sales.order_total --return-value -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().BoolVar(&describeReturnValue, "return-value", false, "Include the return value parameter")
	rootCmd.AddCommand(describeCmd)
}

type describeOutput struct {
	Procedure  string                `json:"procedure" yaml:"procedure"`
	Driver     string                `json:"driver" yaml:"driver"`
	Identity   string                `json:"identity" yaml:"identity"`
	Parameters []*sphelper.Parameter `json:"parameters" yaml:"parameters"`
}

func runDescribe(cmd *cobra.Command, args []string) error {
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
	params, err := s.cache.GetSpParameterSet(ctx, s.source, discover, args[0], describeReturnValue)
	if err != nil {
		return err
	}

	out := describeOutput{
		Procedure:  args[0],
		Driver:     s.source.Driver(),
		Identity:   s.source.Identity(),
		Parameters: params,
	}
	return render(cmd.OutOrStdout(), flags.output, out, func(tw *tabwriter.Writer) {
		writeParameterTable(tw, params)
	})
}

func writeParameterTable(tw *tabwriter.Writer, params []*sphelper.Parameter) {
	fmt.Fprintln(tw, "#\tNAME\tDIRECTION\tTYPE\tSIZE\tPRECISION\tNULLABLE")
	for _, p := range params {
		size := ""
		switch {
		case p.Size < 0:
			size = "max"
		case p.Size > 0:
			size = fmt.Sprint(p.Size)
		}
		precision := ""
		if p.Precision > 0 {
			precision = fmt.Sprintf("%d,%d", p.Precision, p.Scale)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
			p.Position, p.Name, p.Direction, p.DataType, size, precision, p.Nullable)
	}
}
