package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/tabledraw/pkg/errors"
)

// Column names recognised in the CSV header row.
const (
	ColumnHeader    = "Header"
	ColumnSubHeader = "Sub-Header"
	ColumnItem      = "Item"
	ColumnStatus    = "Status"
)

var requiredColumns = []string{ColumnHeader, ColumnSubHeader, ColumnItem}

// ReadCSV reads CSV rows from r and groups them.
//
// The first row names the columns. Header, Sub-Header and Item are required
// (case-sensitive); Status is optional. Any other column is kept in
// [Item.Extra]. A row with an empty Header, Sub-Header or Item aborts the
// read with a MALFORMED_RECORD error naming its line number.
func ReadCSV(r io.Reader) (*Grouped, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeMalformedRecord, "empty table: no header row")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedRecord, err, "read header row")
	}

	cols := make(map[string]int, len(head))
	for i, name := range head {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.New(errors.ErrCodeMalformedRecord, "missing column %q", name)
		}
	}

	t := New()
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedRecord, err, "read row")
		}
		line, _ := cr.FieldPos(0)

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		item := Item{
			Name:   field(ColumnItem),
			Status: ParseStatus(field(ColumnStatus)),
		}
		for name, i := range cols {
			if isKnownColumn(name) || i >= len(rec) || rec[i] == "" {
				continue
			}
			if item.Extra == nil {
				item.Extra = make(map[string]string)
			}
			item.Extra[name] = rec[i]
		}

		if err := t.Add(field(ColumnHeader), field(ColumnSubHeader), item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return t, nil
}

// ReadCSVFile reads and groups the CSV file at path.
func ReadCSVFile(path string) (*Grouped, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "table %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func isKnownColumn(name string) bool {
	switch name {
	case ColumnHeader, ColumnSubHeader, ColumnItem, ColumnStatus:
		return true
	}
	return false
}
