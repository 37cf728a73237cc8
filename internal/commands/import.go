package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendsight/internal/importer"
)

func newImportCommand(root *rootOptions) *cobra.Command {
	var markProcessed bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Check the bank exports waiting in import/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(root)
			if err != nil {
				return err
			}
			reg := importer.DefaultRegistry(p.cfg.Currency)

			files, err := importer.Scan(p.root, reg.Extensions()...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No files in import/.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tFORMAT\tTRANSACTIONS\tSKIPPED\tSTATUS")
			var done []string
			for _, f := range files {
				parser := reg.ForFile(f.Name)
				res, err := importer.ParseFile(parser, f.Path)
				if err != nil {
					p.log.Warn().Err(err).Str("file", f.Name).Msg("import.failed")
					fmt.Fprintf(tw, "%s\t%s\t-\t-\terror: %v\n", f.Name, parser.Format(), err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\tok\n", f.Name, parser.Format(), len(res.Transactions), len(res.Skipped))
				done = append(done, f.Name)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if !markProcessed {
				return nil
			}
			for _, name := range done {
				if err := importer.MarkProcessed(p.root, name); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Moved %d file(s) to import/processed/\n", len(done))
			return nil
		},
	}

	cmd.Flags().BoolVar(&markProcessed, "mark-processed", false, "move readable files to import/processed/")

	return cmd
}
