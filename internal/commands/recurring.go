package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRecurringCommand(root *rootOptions) *cobra.Command {
	var (
		in     inputOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "List recurring payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(root)
			if err != nil {
				return err
			}
			txns, err := in.load(p)
			if err != nil {
				return err
			}

			patterns := p.synthesizer(nil, nil).Recurring(txns)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, patterns)
			}
			if len(patterns) == 0 {
				fmt.Fprintln(out, "No recurring payments found.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MERCHANT\tCOUNT\tAVERAGE\tFREQUENCY\tMONTHLY\tCATEGORY")
			for _, pat := range patterns {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
					pat.MerchantKey, pat.Occurrences(), pat.AverageAmount.StringFixed(2),
					pat.Frequency, pat.MonthlyImpact.StringFixed(2), pat.Category)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, pat := range patterns {
				fmt.Fprintf(out, "\n%s: %s\n", pat.MerchantKey, pat.Recommendation)
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print patterns as JSON")

	return cmd
}
