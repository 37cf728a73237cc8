package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendsight/internal/categories"
	"github.com/cleared-dev/spendsight/internal/config"
	"github.com/cleared-dev/spendsight/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var (
		currency string
		useGit   bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new spendsight project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, currency); err != nil {
				return err
			}
			if !useGit {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized spendsight project at %s\n", absDir)
				return nil
			}

			if err := gitops.Init(cmd.Context(), absDir); err != nil {
				return err
			}
			hash, err := gitops.CommitAll(cmd.Context(), absDir, "init: spendsight project", gitops.DefaultSignature)
			if err != nil {
				return fmt.Errorf("initial commit: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized spendsight project at %s (%s)\n", absDir, hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "GBP", "ISO 4217 currency of the analysed accounts")
	cmd.Flags().BoolVar(&useGit, "git", false, "track config and category rules in a new git repository")

	return cmd
}

func runInit(dir, currency string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	dirs := []string{
		"categories",
		"logs",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	if currency != "" {
		cfg.Currency = strings.ToUpper(currency)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := categories.Default().Save(dir); err != nil {
		return fmt.Errorf("writing category rules: %w", err)
	}

	gitignore := "exports/\nimport/\nlogs/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	return nil
}
