package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendsight/internal/insight"
	"github.com/cleared-dev/spendsight/internal/runlog"
)

func newAskCommand(root *rootOptions) *cobra.Command {
	var (
		in     inputOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ask <template-id>",
		Short: "Answer a templated question about your spending",
		Long:  "Answer a templated question about your spending. Run `spendsight templates` to list the IDs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(root)
			if err != nil {
				return err
			}
			txns, err := in.load(p)
			if err != nil {
				return err
			}
			gen, err := p.generator(cmd.Context())
			if err != nil {
				return err
			}

			insights := p.synthesizer(gen, nil).Ask(cmd.Context(), args[0], txns)

			p.recordRun(runlog.Entry{
				Timestamp:    time.Now().UTC(),
				RunID:        runlog.NewRunID(),
				Command:      "ask",
				Transactions: len(txns),
				Insights:     len(insights),
				Status:       "ok",
				Details:      args[0],
			})

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, insights)
			}
			if tmpl, ok := insight.LookupTemplate(args[0]); ok {
				fmt.Fprintln(out, tmpl.Question)
			}
			if len(insights) == 0 {
				fmt.Fprintln(out, "No transactions to analyse.")
				return nil
			}
			printInsights(out, insights)
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print insights as JSON")

	return cmd
}
