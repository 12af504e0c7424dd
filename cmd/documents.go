package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spigell/talent-screener/internal/candidate"
)

var documentExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

// readDocuments loads resume texts from files and directories. Directories
// are read one level deep and only text documents are picked up from them.
func readDocuments(paths []string) (*candidate.Batch, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading documents directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, ok := documentExtensions[strings.ToLower(filepath.Ext(e.Name()))]; ok {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	sort.Strings(files)

	batch := candidate.NewBatch()
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading document: %w", err)
		}
		batch.Items = append(batch.Items, candidate.New("", filepath.Base(f), string(data)))
	}
	return batch, nil
}
