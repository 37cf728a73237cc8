package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/truelayer"
)

func newSyncCommand(root *rootOptions) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch transactions from a data source",
	}
	syncCmd.AddCommand(newSyncTrueLayerCommand(root))
	return syncCmd
}

// defaultSyncDays is the lookback window when --from is not given.
const defaultSyncDays = 90

func newSyncTrueLayerCommand(root *rootOptions) *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "truelayer",
		Short: "Download transactions for every connected TrueLayer account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(root)
			if err != nil {
				return err
			}

			end := time.Now().UTC()
			if to != "" {
				if end, err = ingest.ParseTime(to); err != nil {
					return fmt.Errorf("parsing --to: %w", err)
				}
			}
			start := end.AddDate(0, 0, -defaultSyncDays)
			if from != "" {
				if start, err = ingest.ParseTime(from); err != nil {
					return fmt.Errorf("parsing --from: %w", err)
				}
			}

			client, err := truelayer.NewClient(p.cfg.TrueLayer.BaseURL, p.cfg.TrueLayer.Token(), truelayer.WithLogger(p.log))
			if err != nil {
				return fmt.Errorf("%w (set %s)", err, p.cfg.TrueLayer.TokenEnv)
			}

			txns, skipped, err := client.AllTransactions(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("fetching transactions: %w", err)
			}
			for _, s := range skipped {
				p.log.Warn().Str("reason", s.Error()).Msg("ingest.skipped")
			}

			if out == "" {
				out = filepath.Join(p.root, "import", "truelayer-"+end.Format("20060102")+".json")
			}
			records := make([]ingest.Record, len(txns))
			for i, t := range txns {
				records[i] = ingest.FromTransaction(t)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()
			if err := writeJSON(f, records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transaction(s) to %s (%d skipped)\n", len(txns), out, len(skipped))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (default: 90 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "end date (default: now)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: import/truelayer-<date>.json)")

	return cmd
}
