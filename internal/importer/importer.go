package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/spendsight/internal/ingest"
	"github.com/cleared-dev/spendsight/internal/model"
)

// ParseResult holds the transactions read from a file and the rows that
// were skipped.
type ParseResult struct {
	Transactions []model.Transaction
	Skipped      []ingest.ValidationError
}

// Parser converts a bank export into Transactions. Bad rows are skipped
// and reported; only an unreadable file is an error.
type Parser interface {
	Parse(r io.Reader) (ParseResult, error)
	Format() string
	Extension() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// FileInfo describes a file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
	r.order = append(r.order, key)
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// ForFile returns the first registered parser whose extension matches name,
// or nil.
func (r *Registry) ForFile(name string) Parser {
	ext := strings.ToLower(filepath.Ext(name))
	for _, key := range r.order {
		if p := r.parsers[key]; p.Extension() == ext {
			return p
		}
	}
	return nil
}

// Extensions lists the distinct file extensions the registry can parse.
func (r *Registry) Extensions() []string {
	var out []string
	seen := make(map[string]bool)
	for _, key := range r.order {
		ext := r.parsers[key].Extension()
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	return out
}

// DefaultRegistry returns a registry with all built-in parsers. currency
// is stamped on Chase rows and used as the run currency for JSON records.
// ".json" files resolve to the sniffing JSON parser; "truelayer" is only
// reachable by name.
func DefaultRegistry(currency string) *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{Currency: currency})
	r.Register(&JSONParser{Currency: currency})
	r.Register(&TrueLayerParser{})
	return r
}

// ParseFile opens path and parses it with p.
func ParseFile(p Parser, path string) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	res, err := p.Parse(f)
	if err != nil {
		return ParseResult{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return res, nil
}

// importDir is the subdirectory for bank exports.
const importDir = "import"

// processedDir is the subdirectory for processed exports.
const processedDir = "import/processed"

// Scan returns files in <root>/import/ with one of the given extensions.
func Scan(root string, extensions ...string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	want := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		want[strings.ToLower(ext)] = true
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !want[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
