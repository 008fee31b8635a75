package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVSource reads one feed from an exported CSV file. It is the local-file
// stand-in for the report-scraping adapters, which live outside the core.
type CSVSource struct {
	def  FeedDef
	path string
}

func NewCSVSource(def FeedDef, path string) *CSVSource {
	return &CSVSource{def: def, path: path}
}

func (s *CSVSource) Def() FeedDef { return s.def }

// Fetch reads the whole file up front. Any malformed record fails the feed
// loudly; the pipeline never proceeds on partial data for a feed.
func (s *CSVSource) Fetch(ctx context.Context) ([]map[string]string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	headings, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read feed headings: %w", err)
	}

	var records []map[string]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feed record: %w", err)
		}
		record := make(map[string]string, len(headings))
		for i, heading := range headings {
			if i < len(fields) {
				record[heading] = fields[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}
