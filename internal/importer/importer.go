// Package importer loads reading items from YAML, JSON, CSV or Excel files.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

// Config describes where items live in a spreadsheet. Columns are fixed:
// A title, B author, C topic, D school, E total pages, F current page.
type Config struct {
	FilePath  string
	SheetName string
	StartRow  int // 1-based, 2 skips the header
}

func DefaultConfig(path string) Config {
	return Config{FilePath: path, SheetName: "Sheet1", StartRow: 2}
}

type Result struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

type record struct {
	Title       string `yaml:"title" json:"title"`
	Author      string `yaml:"author" json:"author"`
	Topic       string `yaml:"topic" json:"topic"`
	School      string `yaml:"school" json:"school"`
	TotalPages  int    `yaml:"totalPages" json:"totalPages"`
	CurrentPage int    `yaml:"currentPage" json:"currentPage"`
}

type document struct {
	Items []record `yaml:"items" json:"items"`
}

func (r record) item() models.ReadingItem {
	return models.ReadingItem{
		Title:       strings.TrimSpace(r.Title),
		Author:      strings.TrimSpace(r.Author),
		Topic:       strings.TrimSpace(r.Topic),
		School:      strings.TrimSpace(r.School),
		TotalPages:  r.TotalPages,
		CurrentPage: r.CurrentPage,
	}
}

// Import parses cfg.FilePath and inserts its items for userID. Items that
// already exist are counted as skipped.
func Import(ctx context.Context, db *sqlx.DB, userID string, cfg Config, now time.Time) (*Result, error) {
	items, rowErrs, err := Parse(cfg)
	if err != nil {
		return nil, err
	}
	created, err := database.SeedItems(ctx, db, userID, items, now)
	if err != nil {
		return nil, err
	}
	return &Result{
		TotalProcessed: len(items) + len(rowErrs),
		Created:        created,
		Skipped:        len(items) - created,
		Errors:         rowErrs,
	}, nil
}

// Parse reads items by file extension. Row level problems are reported in
// the returned slice and do not abort the import.
func Parse(cfg Config) ([]models.ReadingItem, []string, error) {
	switch ext := strings.ToLower(filepath.Ext(cfg.FilePath)); ext {
	case ".yaml", ".yml", ".json":
		raw, err := os.ReadFile(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", cfg.FilePath, err)
		}
		items, err := parseDocument(raw, ext == ".json")
		return items, nil, err
	case ".csv":
		f, err := os.Open(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.FilePath, err)
		}
		defer f.Close()
		rows, err := readCSV(f)
		if err != nil {
			return nil, nil, err
		}
		items, errs := parseRows(rows, cfg.StartRow)
		return items, errs, nil
	case ".xlsx":
		f, err := excelize.OpenFile(cfg.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open excel file: %w", err)
		}
		defer f.Close()
		rows, err := f.GetRows(cfg.SheetName)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %q: %w", cfg.SheetName, err)
		}
		items, errs := parseRows(rows, cfg.StartRow)
		return items, errs, nil
	default:
		return nil, nil, fmt.Errorf("unsupported import format %q", ext)
	}
}

// parseDocument accepts either {items: [...]} or a bare list.
func parseDocument(raw []byte, isJSON bool) ([]models.ReadingItem, error) {
	var (
		doc  document
		list []record
	)
	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(raw, &doc); err == nil {
		list = doc.Items
	} else if err := unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	items := make([]models.ReadingItem, 0, len(list))
	for _, r := range list {
		items = append(items, r.item())
	}
	return items, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func parseRows(rows [][]string, startRow int) ([]models.ReadingItem, []string) {
	if startRow < 1 {
		startRow = 1
	}
	var (
		items []models.ReadingItem
		errs  []string
	)
	for i, row := range rows {
		if i < startRow-1 {
			continue
		}
		col := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if col(0) == "" {
			errs = append(errs, fmt.Sprintf("Row %d: missing title", i+1))
			continue
		}
		total, err := pages(col(4))
		if err != nil {
			errs = append(errs, fmt.Sprintf("Row %d: total pages: %v", i+1, err))
			continue
		}
		current, err := pages(col(5))
		if err != nil {
			errs = append(errs, fmt.Sprintf("Row %d: current page: %v", i+1, err))
			continue
		}
		items = append(items, models.ReadingItem{
			Title:       col(0),
			Author:      col(1),
			Topic:       col(2),
			School:      col(3),
			TotalPages:  total,
			CurrentPage: current,
		})
	}
	return items, errs
}

func pages(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
