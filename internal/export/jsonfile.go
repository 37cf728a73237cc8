package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONFile writes documents to a single JSON file, replacing its contents.
type JSONFile struct {
	filename string
}

func NewJSONFile(filename string) *JSONFile {
	return &JSONFile{filename: filename}
}

func (f *JSONFile) Write(_ context.Context, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling documents: %w", err)
	}
	if err := os.WriteFile(f.filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", f.filename, err)
	}
	return nil
}
