package recipient

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PhoneColumn is the CSV header holding recipient numbers.
const PhoneColumn = "phone_number"

var ErrMissingPhoneColumn = fmt.Errorf("csv must contain a %q column", PhoneColumn)

// ParseCSV reads the phone_number column of a CSV document.
// Blank cells are skipped; values are trimmed.
func ParseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingPhoneColumn
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == PhoneColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrMissingPhoneColumn
	}

	var numbers []string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if col >= len(record) {
			continue
		}
		if n := strings.TrimSpace(record[col]); n != "" {
			numbers = append(numbers, n)
		}
	}

	return numbers, nil
}

// ParseManual splits comma separated numbers typed by a user.
func ParseManual(s string) []string {
	var numbers []string
	for _, part := range strings.Split(s, ",") {
		if n := strings.TrimSpace(part); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers
}
