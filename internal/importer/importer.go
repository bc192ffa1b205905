// Package importer loads practice documents from text, YAML, CSV and Excel files.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/typedrill/internal/model"
	"github.com/verte-zerg/typedrill/internal/wordlist"
)

// ErrUnsupported is returned for file extensions no importer handles.
var ErrUnsupported = errors.New("unsupported file type")

// DocumentCreator stores imported documents.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, title, content string) (model.Document, error)
}

// Config defines the import source.
type Config struct {
	Path       string // file to import
	SheetName  string // xlsx sheet, first sheet when empty
	SkipHeader bool   // skip the first row of csv and xlsx files
}

// DefaultConfig returns the config for path with the header row skipped.
func DefaultConfig(path string) Config {
	return Config{Path: path, SkipHeader: true}
}

// Result holds the outcome of an import.
type Result struct {
	Processed int
	Created   int
	Skipped   int
	Errors    []string
	Documents []model.Document
}

type entry struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	row     int
}

// Import reads cfg.Path and creates one document per entry.
func Import(ctx context.Context, dst DocumentCreator, cfg Config) (*Result, error) {
	var (
		entries []entry
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(cfg.Path)); ext {
	case ".txt", ".md", "":
		entries, err = readText(cfg.Path)
	case ".yaml", ".yml":
		entries, err = readYAML(cfg.Path)
	case ".csv":
		entries, err = readCSV(cfg)
	case ".xlsx":
		entries, err = readExcel(cfg)
	default:
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupported)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Errors: make([]string, 0)}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++
		content := strings.TrimSpace(e.Content)
		if content == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: content cannot be empty", e.row))
			continue
		}
		doc, err := dst.CreateDocument(ctx, strings.TrimSpace(e.Title), content)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", e.row, err))
			continue
		}
		result.Created++
		result.Documents = append(result.Documents, doc)
	}
	return result, nil
}

func readText(path string) ([]entry, error) {
	content, err := wordlist.LoadText(path)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []entry{{Title: title, Content: content, row: 1}}, nil
}

func readYAML(path string) ([]entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	for i := range entries {
		entries[i].row = i + 1
	}
	return entries, nil
}

func readCSV(cfg Config) ([]entry, error) {
	file, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return fromRows(rows, cfg.SkipHeader), nil
}

func readExcel(cfg Config) ([]entry, error) {
	f, err := excelize.OpenFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return fromRows(rows, cfg.SkipHeader), nil
}

// fromRows maps column A to the title and column B to the content.
func fromRows(rows [][]string, skipHeader bool) []entry {
	entries := make([]entry, 0, len(rows))
	for i, row := range rows {
		if skipHeader && i == 0 {
			continue
		}
		if isBlank(row) {
			continue
		}
		e := entry{row: i + 1}
		if len(row) > 0 {
			e.Title = row[0]
		}
		if len(row) > 1 {
			e.Content = row[1]
		}
		entries = append(entries, e)
	}
	return entries
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
