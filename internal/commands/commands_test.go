package commands_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/spendsight/internal/categories"
	"github.com/cleared-dev/spendsight/internal/commands"
	"github.com/cleared-dev/spendsight/internal/config"
	"github.com/cleared-dev/spendsight/internal/export"
	"github.com/cleared-dev/spendsight/internal/gitops"
	"github.com/cleared-dev/spendsight/internal/runlog"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := run(t, "init", dir)
	require.NoError(t, err)
	return dir
}

const records = `[
 {"id":"a","timestamp":"2025-02-04T10:00:00Z","amount":-50,"description":"PRET A MANGER","currency":"GBP"},
 {"id":"b","timestamp":"2025-03-04T10:00:00Z","amount":"-80.00","description":"PRET A MANGER","currency":"GBP"},
 {"id":"c","date":"2025-03-05","amount":-70,"description":"DELIVEROO","currency":"GBP"},
 {"id":"n1","date":"2024-12-01","amount":-9.99,"description":"NETFLIX.COM","currency":"GBP"},
 {"id":"n2","date":"2024-12-31","amount":-9.99,"description":"NETFLIX.COM","currency":"GBP"},
 {"id":"n3","date":"2025-01-30","amount":-9.99,"description":"NETFLIX.COM","currency":"GBP"},
 {"id":"bad","timestamp":"soon","amount":-1,"description":"BROKEN","currency":"GBP"}
]`

func writeImport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, "import", name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "init", dir, "--currency", "usd")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized spendsight project")

	for _, d := range []string{"categories", "logs", "exports", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 3, cfg.Analysis.TopInsights)

	svc, err := categories.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, len(categories.DefaultRules()), len(svc.Rules()))

	_, err = os.Stat(filepath.Join(dir, ".gitignore"))
	assert.NoError(t, err)
}

func TestInit_Git(t *testing.T) {
	if !gitops.Available() {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	out, err := run(t, "init", dir, "--git")
	require.NoError(t, err)
	assert.Regexp(t, `Initialized spendsight project at .* \([0-9a-f]+\)`, out)
	assert.True(t, gitops.IsRepo(dir))
}

func TestInit_RefusesExistingProject(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestTemplates(t *testing.T) {
	out, err := run(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "quick-savings")
	assert.Contains(t, out, "Where can I save money quickly?")

	out, err = run(t, "templates", "--json")
	require.NoError(t, err)
	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 10)
}

func TestAnalyze_Text(t *testing.T) {
	dir := initProject(t)
	writeImport(t, dir, "txns.json", records)

	out, err := run(t, "analyze", "--dir", dir, "--as-of", "2025-03-20", "--no-narrative")
	require.NoError(t, err)
	assert.Contains(t, out, "March 2025: spent 150.00 GBP, received 0.00 GBP")
	assert.Contains(t, out, "Previous month: 50.00 GBP (+200.00%)")
	assert.Contains(t, out, "Dining")
	assert.Contains(t, out, "Dining spending up 200%")

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "analyze", entries[0].Command)
	assert.Equal(t, 6, entries[0].Transactions)
	assert.Equal(t, "statistical", entries[0].Status)
	assert.Equal(t, "2025-03", entries[0].Details)
}

func TestAnalyze_NarrativeUnavailable(t *testing.T) {
	dir := initProject(t)
	writeImport(t, dir, "txns.json", records)

	out, err := run(t, "analyze", "--dir", dir, "--as-of", "2025-03-20", "--json")
	require.NoError(t, err)

	var rep struct {
		Narrative struct {
			Status string `json:"status"`
		} `json:"narrative"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "unavailable", rep.Narrative.Status)

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "unavailable", entries[0].Status)
}

func TestAnalyze_ExportJSON(t *testing.T) {
	dir := initProject(t)
	input := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(input, []byte(records), 0o644))
	exportPath := filepath.Join(dir, "exports", "run.json")

	_, err := run(t, "analyze", "--dir", dir, "-i", input, "--as-of", "2025-03-20", "--no-narrative", "--export-json", exportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var docs []export.Document
	require.NoError(t, json.Unmarshal(data, &docs))
	require.NotEmpty(t, docs)
	assert.Equal(t, export.KindSummary, docs[0].Kind)
	assert.Equal(t, "150", docs[0].Summary.Total.String())

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, docs[0].RunID, entries[0].RunID)
}

func TestAnalyze_EmptyProject(t *testing.T) {
	dir := initProject(t)
	out, err := run(t, "analyze", "--dir", dir, "--as-of", "2025-03-20")
	require.NoError(t, err)
	assert.Contains(t, out, "March 2025: no transactions")
}

func TestAnalyze_UnknownFormat(t *testing.T) {
	dir := initProject(t)
	input := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(input, []byte(records), 0o644))

	_, err := run(t, "analyze", "--dir", dir, "-i", input, "--format", "ofx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "ofx"`)
}

func TestAnalyze_BadAsOf(t *testing.T) {
	dir := initProject(t)
	_, err := run(t, "analyze", "--dir", dir, "--as-of", "next tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing --as-of")
}

func TestAnalyze_UnknownProvider(t *testing.T) {
	dir := initProject(t)
	cfgPath := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.Narrative.Provider = "carrier-pigeon"
	require.NoError(t, config.Save(cfgPath, cfg))

	_, err = run(t, "analyze", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown narrative provider")
}

func TestAsk_UnknownTemplate(t *testing.T) {
	dir := initProject(t)
	writeImport(t, dir, "txns.json", records)

	out, err := run(t, "ask", "no-such-template", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Template not found")
}

func TestAsk_NoGenerator(t *testing.T) {
	dir := initProject(t)
	writeImport(t, dir, "txns.json", records)

	out, err := run(t, "ask", "quick-savings", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Where can I save money quickly?")
	assert.Contains(t, out, "Analysis unavailable")
}

func TestRecurring(t *testing.T) {
	dir := initProject(t)
	writeImport(t, dir, "txns.json", records)

	out, err := run(t, "recurring", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "NETFLIX.COM")
	assert.Contains(t, out, "monthly")
	assert.Contains(t, out, "9.99")
}

func TestImport_ListAndMarkProcessed(t *testing.T) {
	dir := initProject(t)
	writeImport(t, dir, "txns.json", records)
	writeImport(t, dir, "chase.csv", "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"+
		"DEBIT,01/03/2025,GITHUB,-4.00,ACH_DEBIT,100.00,\n")
	writeImport(t, dir, "notes.txt", "ignored")

	out, err := run(t, "import", "--dir", dir, "--mark-processed")
	require.NoError(t, err)
	assert.Contains(t, out, "chase.csv")
	assert.Contains(t, out, "txns.json")
	assert.NotContains(t, out, "notes.txt")
	assert.Contains(t, out, "Moved 2 file(s)")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "txns.json"))
	assert.NoError(t, err)
}

func TestSyncTrueLayer_NoToken(t *testing.T) {
	dir := initProject(t)
	t.Setenv("TRUELAYER_ACCESS_TOKEN", "")

	_, err := run(t, "sync", "truelayer", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUELAYER_ACCESS_TOKEN")
}

func TestSyncTrueLayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/data/v1/accounts":
			fmt.Fprint(w, `{"results":[{"account_id":"acc1","display_name":"Current","currency":"GBP"}]}`)
		case strings.HasSuffix(r.URL.Path, "/transactions"):
			fmt.Fprint(w, `{"results":[
			  {"transaction_id":"t1","timestamp":"2025-03-02T00:00:00Z","description":"TESCO","amount":12.5,
			   "currency":"GBP","transaction_type":"DEBIT","transaction_classification":["Shopping"]}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := initProject(t)
	cfgPath := filepath.Join(dir, config.FileName)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	cfg.TrueLayer.BaseURL = srv.URL
	require.NoError(t, config.Save(cfgPath, cfg))
	t.Setenv("TRUELAYER_ACCESS_TOKEN", "tok")

	out, err := run(t, "sync", "truelayer", "--dir", dir, "--from", "2025-03-01", "--to", "2025-03-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 transaction(s)")

	path := filepath.Join(dir, "import", "truelayer-20250331.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "t1"`)
	assert.Contains(t, string(data), `"amount": -12.5`)

	// The written file is readable by analyze.
	out, err = run(t, "analyze", "--dir", dir, "--as-of", "2025-03-20", "--no-narrative")
	require.NoError(t, err)
	assert.Contains(t, out, "spent 12.50 GBP")
}
