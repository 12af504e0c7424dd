package jobs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const (
	columnRole = "role"
	columnText = "text"
)

// yamlEntry accepts either a raw description or an explicit profile.
type yamlEntry struct {
	Role   string   `yaml:"role"`
	Text   string   `yaml:"text"`
	Skills []string `yaml:"skills"`
	MinExp *float64 `yaml:"min_exp"`
	MaxExp *float64 `yaml:"max_exp"`
}

// LoadFile reads job profiles from a csv, xlsx or yaml file.
func LoadFile(path string) (*Profiles, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return LoadCSV(f)
	case ".xlsx":
		return LoadXLSX(path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return LoadYAML(data)
	default:
		return nil, fmt.Errorf("unsupported job descriptions file %q", path)
	}
}

// LoadCSV reads a table with "role" and "text" columns.
func LoadCSV(r io.Reader) (*Profiles, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse job descriptions csv: %w", err)
	}
	return fromRows(rows)
}

// LoadXLSX reads the first sheet of a workbook with "role" and "text" columns.
func LoadXLSX(path string) (*Profiles, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open job descriptions workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("job descriptions workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// LoadYAML reads a list of entries. An entry with explicit skills is taken as is,
// otherwise skills and experience are derived from its text.
func LoadYAML(data []byte) (*Profiles, error) {
	var entries []yamlEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse job descriptions yaml: %w", err)
	}

	items := make([]*Profile, 0, len(entries))
	for _, e := range entries {
		profile, err := FromDescription(Description{Role: e.Role, Text: e.Text})
		if err != nil {
			return nil, err
		}
		if len(e.Skills) > 0 {
			profile.Skills = e.Skills
		}
		if e.MinExp != nil {
			profile.MinExp = *e.MinExp
		}
		if e.MaxExp != nil {
			profile.MaxExp = *e.MaxExp
		}
		items = append(items, profile)
	}
	return NewProfiles(items...)
}

func fromRows(rows [][]string) (*Profiles, error) {
	if len(rows) == 0 {
		return nil, errors.New("job descriptions table is empty")
	}

	roleIdx, textIdx := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case columnRole:
			roleIdx = i
		case columnText:
			textIdx = i
		}
	}
	if roleIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("required columns %q and %q not found", columnRole, columnText)
	}

	items := make([]*Profile, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if roleIdx >= len(row) || strings.TrimSpace(row[roleIdx]) == "" {
			continue
		}
		text := ""
		if textIdx < len(row) {
			text = row[textIdx]
		}

		profile, err := FromDescription(Description{Role: row[roleIdx], Text: text})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		items = append(items, profile)
	}
	return NewProfiles(items...)
}
