package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// txtText reads the full file contents verbatim.
func txtText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: read txt %s: %w", path, err)
	}
	return string(raw), nil
}

// csvText reads rows in order, joins the cells of each row with a single
// space, and joins rows with newlines. Column semantics are intentionally
// dropped — the output feeds a plain-text chunker.
func csvText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: open csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Ragged rows are data, not errors, for text extraction purposes.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("extract: parse csv %s: %w", path, err)
	}

	rows := make([]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, strings.Join(record, " "))
	}
	return strings.Join(rows, "\n"), nil
}
