package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/spendsight/internal/categories"
	"github.com/cleared-dev/spendsight/internal/config"
	"github.com/cleared-dev/spendsight/internal/importer"
	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/insight"
	"github.com/cleared-dev/spendsight/internal/logger"
	"github.com/cleared-dev/spendsight/internal/model"
	"github.com/cleared-dev/spendsight/internal/narrative"
	"github.com/cleared-dev/spendsight/internal/runlog"
)

// project is a loaded spendsight directory.
type project struct {
	root       string
	cfg        *config.Config
	log        zerolog.Logger
	classifier *categories.Service
}

// loadProject reads spendsight.yaml and categories/rules.csv from the
// project directory. Both are optional.
func loadProject(opts *rootOptions) (*project, error) {
	root, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := config.Default()
	path := filepath.Join(root, config.FileName)
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking config: %w", err)
	}

	classifier, err := categories.LoadOrDefault(root)
	if err != nil {
		return nil, err
	}

	return &project{
		root:       root,
		cfg:        cfg,
		log:        logger.New(opts.logLevel),
		classifier: classifier,
	}, nil
}

// generator builds the configured narrative collaborator. A provider that
// is configured but missing its key or model degrades to nil.
func (p *project) generator(ctx context.Context) (narrative.Generator, error) {
	g, err := newGenerator(ctx, p.cfg.Narrative)
	if errors.Is(err, narrative.ErrNotConfigured) {
		p.log.Warn().Str("provider", p.cfg.Narrative.Provider).Msg("narrative.not_configured")
		return nil, nil
	}
	return g, err
}

func newGenerator(ctx context.Context, n config.Narrative) (narrative.Generator, error) {
	var g narrative.Generator
	switch strings.ToLower(n.Provider) {
	case "", "none":
		return nil, nil
	case "gemini":
		gm, err := narrative.NewGemini(ctx, n.APIKey(), n.Model)
		if err != nil {
			return nil, err
		}
		g = gm
	case "ollama":
		o, err := narrative.NewOllama(n.Endpoint, n.Model, &http.Client{Timeout: n.Timeout()})
		if err != nil {
			return nil, err
		}
		g = o
	default:
		return nil, fmt.Errorf("unknown narrative provider %q", n.Provider)
	}
	if n.MaxRetries > 0 {
		g = narrative.WithRetry(g, uint64(n.MaxRetries))
	}
	return g, nil
}

func (p *project) synthesizer(gen narrative.Generator, now func() time.Time) *insight.Synthesizer {
	opts := []insight.Option{
		insight.WithLogger(p.log),
		insight.WithClassifier(p.classifier),
		insight.WithConfig(p.cfg.Analysis),
		insight.WithNarrativeConfig(p.cfg.Narrative),
		insight.WithCurrency(p.cfg.Currency),
	}
	if gen != nil {
		opts = append(opts, insight.WithGenerator(gen))
	}
	if now != nil {
		opts = append(opts, insight.WithClock(now))
	}
	return insight.New(opts...)
}

// recordRun appends to logs/run-log.csv. A failed write is logged, not
// returned.
func (p *project) recordRun(e runlog.Entry) {
	if err := runlog.Append(p.root, []runlog.Entry{e}); err != nil {
		p.log.Warn().Err(err).Msg("runlog.append_failed")
	}
}

// inputOptions selects the transactions a command reads.
type inputOptions struct {
	inputs []string
	format string
	asOf   string
}

func (o *inputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&o.inputs, "input", "i", nil, "transaction files (default: every file in import/)")
	cmd.Flags().StringVar(&o.format, "format", "", "parser for --input files (chase, json, truelayer); default by extension")
}

func (o *inputOptions) registerAsOf(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.asOf, "as-of", "", "analyse the month containing this date (YYYY-MM-DD); default today")
}

// clock returns the analysis clock, or nil for the wall clock.
func (o *inputOptions) clock() (func() time.Time, error) {
	if o.asOf == "" {
		return nil, nil
	}
	t, err := ingest.ParseTime(o.asOf)
	if err != nil {
		return nil, fmt.Errorf("parsing --as-of: %w", err)
	}
	return func() time.Time { return t }, nil
}

// load reads the selected files. Rows that fail to parse are logged and
// skipped; a transaction ID seen in an earlier file is dropped.
func (o *inputOptions) load(p *project) ([]model.Transaction, error) {
	reg := importer.DefaultRegistry(p.cfg.Currency)

	paths := o.inputs
	if len(paths) == 0 {
		files, err := importer.Scan(p.root, reg.Extensions()...)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	var all []model.Transaction
	seen := make(map[string]bool)
	for _, path := range paths {
		parser := reg.ForFile(path)
		if o.format != "" {
			parser = reg.Get(o.format)
			if parser == nil {
				return nil, fmt.Errorf("unknown format %q", o.format)
			}
		}
		if parser == nil {
			return nil, fmt.Errorf("no parser for %s", filepath.Base(path))
		}

		res, err := importer.ParseFile(parser, path)
		if err != nil {
			return nil, err
		}
		for _, s := range res.Skipped {
			p.log.Warn().Str("file", filepath.Base(path)).Str("reason", s.Error()).Msg("ingest.skipped")
		}
		for _, txn := range res.Transactions {
			if seen[txn.ID] {
				continue
			}
			seen[txn.ID] = true
			all = append(all, txn)
		}
	}
	p.log.Info().Int("files", len(paths)).Int("transactions", len(all)).Msg("ingest.done")
	return all, nil
}
