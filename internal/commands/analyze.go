package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendsight/internal/export"
	"github.com/cleared-dev/spendsight/internal/insight"
	"github.com/cleared-dev/spendsight/internal/model"
	"github.com/cleared-dev/spendsight/internal/runlog"
)

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	var (
		in          inputOptions
		noNarrative bool
		asJSON      bool
		exportJSON  string
		exportES    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize the month's spending and rank insights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(root)
			if err != nil {
				return err
			}
			now, err := in.clock()
			if err != nil {
				return err
			}
			txns, err := in.load(p)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var synth *insight.Synthesizer
			if noNarrative {
				synth = p.synthesizer(nil, now)
			} else {
				gen, err := p.generator(ctx)
				if err != nil {
					return err
				}
				synth = p.synthesizer(gen, now)
			}

			rep := synth.Report(ctx, txns, !noNarrative)

			runID := runlog.NewRunID()
			status := "statistical"
			if rep.Narrative != nil {
				status = string(rep.Narrative.Status)
			}

			if exportJSON != "" || exportES {
				docs := export.Documents(runID, p.cfg.Currency, time.Now().UTC(), rep.Analysis)
				if exportJSON != "" {
					if err := export.NewJSONFile(exportJSON).Write(ctx, docs); err != nil {
						return err
					}
				}
				if exportES {
					es := export.NewElasticsearch(p.cfg.Export.ElasticsearchIndex, p.log, p.cfg.Export.ElasticsearchAddresses...)
					if err := es.Write(ctx, docs); err != nil {
						return fmt.Errorf("exporting to elasticsearch: %w", err)
					}
				}
			}

			p.recordRun(runlog.Entry{
				Timestamp:    time.Now().UTC(),
				RunID:        runID,
				Command:      "analyze",
				Transactions: len(txns),
				Insights:     len(rep.Analysis.Insights),
				Status:       status,
				Details:      rep.Analysis.PeriodStart.Format("2006-01"),
			})

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, rep)
			}
			printReport(out, p.cfg.Currency, rep)
			return nil
		},
	}

	in.register(cmd)
	in.registerAsOf(cmd)
	cmd.Flags().BoolVar(&noNarrative, "no-narrative", false, "skip the narrative model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&exportJSON, "export-json", "", "also write export documents to this file")
	cmd.Flags().BoolVar(&exportES, "export-es", false, "also bulk-index export documents into Elasticsearch")

	return cmd
}

func printReport(w io.Writer, currency string, rep insight.Report) {
	a := rep.Analysis
	month := a.PeriodStart.Format("January 2006")
	if a.Empty {
		fmt.Fprintf(w, "%s: no transactions\n", month)
		return
	}

	fmt.Fprintf(w, "%s: spent %s %s, received %s %s\n",
		month, a.Total.StringFixed(2), currency, a.Income.StringFixed(2), currency)
	fmt.Fprintf(w, "Previous month: %s %s (%+.2f%%)\n",
		a.MonthlyComparison.PreviousMonthTotal.StringFixed(2), currency, a.MonthlyComparison.PercentageChange)

	if len(a.Categories) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tSHARE\tCOUNT")
		for _, c := range a.Categories {
			fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%d\n", c.Name, c.Amount.StringFixed(2), c.Percentage, c.Count)
		}
		tw.Flush()
	}

	if rep.Narrative != nil && rep.Narrative.Analysis != "" {
		fmt.Fprintf(w, "\n%s\n", rep.Narrative.Analysis)
	}

	printInsights(w, a.Insights)
}

func printInsights(w io.Writer, insights []model.Insight) {
	if len(insights) == 0 {
		return
	}
	fmt.Fprintln(w, "\nInsights:")
	for i, in := range insights {
		fmt.Fprintf(w, "%2d. [%s] %s (impact %.2f, confidence %.2f)\n", i+1, in.Type, in.Title, in.Impact, in.Confidence)
		if in.Description != "" {
			fmt.Fprintf(w, "    %s\n", in.Description)
		}
		if in.Action != nil {
			fmt.Fprintf(w, "    -> %s: %s\n", in.Action.Type, in.Action.Description)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
