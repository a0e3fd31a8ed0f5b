// File: internal/services/corpus/csv.go
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iyunix/go-triage/internal/domain"
)

// ReadCSV reads rows with an "id,query,response" header (any column order,
// extra columns ignored). maxRows <= 0 reads everything.
func ReadCSV(r io.Reader, maxRows int) ([]domain.CorpusRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("corpus csv is empty")
		}
		return nil, fmt.Errorf("failed to read corpus header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	queryCol, ok := cols["query"]
	if !ok {
		return nil, fmt.Errorf("corpus csv has no %q column", "query")
	}
	responseCol, ok := cols["response"]
	if !ok {
		return nil, fmt.Errorf("corpus csv has no %q column", "response")
	}
	idCol, hasID := cols["id"]

	var rows []domain.CorpusRow
	for line := 2; maxRows <= 0 || len(rows) < maxRows; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus line %d: %w", line, err)
		}
		row := domain.CorpusRow{
			QueryText:     field(record, queryCol),
			ResponseLabel: field(record, responseCol),
		}
		if hasID {
			row.ID = field(record, idCol)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, maxRows int) ([]domain.CorpusRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, maxRows)
}

func field(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
