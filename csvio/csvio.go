// Package csvio loads and writes storage.DataStore-shaped tables as CSV.
//
// Grounded on the output/csv.go (encoding/csv wrapping, a
// formatValue helper run per cell), generalized from its
// []map[string]interface{} row shape to storage.Schema/value.Value, and
// extended with a reader not present in that reference: original_source/csv.rs's
// per-column type inference order (Int64 -> Float64 -> Date -> Timestamp
// -> Utf8), tried once per column over every non-empty cell.
package csvio

import (
	"encoding/csv"
	"io"

	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/value"
)

// Options configures CSV parsing, per spec §6's CSV codec.
type Options struct {
	Delimiter rune
	HasHeader bool
	Quote     rune // only '"' is supported; kept for interface-completeness with spec §6
}

// inferenceOrder is tried, in order, for every column; the first type every
// non-empty cell in the column coerces to wins.
var inferenceOrder = []value.DataType{value.Int64, value.Float64, value.Date, value.Timestamp, value.Utf8}

// ReadAll reads every record from r, infers one DataType per column, and
// returns a schema plus the fully-coerced row values.
func ReadAll(r io.Reader, opts Options) (*storage.Schema, [][]value.Value, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return &storage.Schema{}, nil, nil
	}

	var header []string
	var dataRecords [][]string
	if opts.HasHeader {
		header = records[0]
		dataRecords = records[1:]
	} else {
		header = make([]string, len(records[0]))
		for i := range header {
			header[i] = columnLetter(i)
		}
		dataRecords = records
	}

	numCols := len(header)
	types := make([]value.DataType, numCols)
	for c := 0; c < numCols; c++ {
		types[c] = inferColumn(dataRecords, c)
	}

	cols := make([]storage.ColumnDef, numCols)
	for c, name := range header {
		cols[c] = storage.NewColumnDef(name, types[c], true)
	}
	schema, err := storage.NewSchema(cols)
	if err != nil {
		return nil, nil, err
	}

	rows := make([][]value.Value, len(dataRecords))
	for ri, rec := range dataRecords {
		row := make([]value.Value, numCols)
		for c := 0; c < numCols; c++ {
			if c >= len(rec) || rec[c] == "" {
				row[c] = value.NewNull()
				continue
			}
			v, err := value.Coerce(value.NewString(rec[c]), types[c])
			if err != nil {
				row[c] = value.NewNull()
				continue
			}
			row[c] = v
		}
		rows[ri] = row
	}
	return schema, rows, nil
}

// inferColumn tries inferenceOrder against every non-empty cell in column c,
// returning the first type every cell coerces to (Utf8 always succeeds, so
// this always terminates).
func inferColumn(records [][]string, c int) value.DataType {
	for _, candidate := range inferenceOrder {
		ok := true
		for _, rec := range records {
			if c >= len(rec) || rec[c] == "" {
				continue
			}
			if _, err := value.Coerce(value.NewString(rec[c]), candidate); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return candidate
		}
	}
	return value.Utf8
}

func columnLetter(i int) string {
	s := ""
	for {
		s = string(rune('A'+(i%26))) + s
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	return s
}

// WriteAll writes schema's column names as a header (unless opts.HasHeader
// is false) followed by rows, rendering each scalar with value.Value.String
// per spec §7's textual forms (NULL renders as the empty string, matching
// the formatValue treatment of a nil cell).
func WriteAll(w io.Writer, schema *storage.Schema, rows [][]value.Value, opts Options) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	if opts.HasHeader {
		if err := cw.Write(schema.Names()); err != nil {
			return err
		}
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			if value.IsNull(v) {
				record[i] = ""
				continue
			}
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
