// Package parquetio loads and writes storage.DataStore-shaped tables as
// Apache Parquet files, an alternate table-loading path alongside csvio.
//
// Grounded on reader/parquet.go (opening a file with parquet.OpenFile,
// reading whole-row maps with parquet.NewReader(...).Read) and
// reader/schema.go (walking parquet.Field to classify a column's type),
// generalized from a []map[string]interface{} row shape to
// storage.Schema/value.Value and extended with a writer that reader/
// parquet.go never had.
package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/segmentio/parquet-go"

	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/value"
)

// LoadStore reads every row of the parquet file at path into a schema and
// row set suitable for storage.NewDataStore, inferring one value.DataType
// per leaf column from the file's own schema the way ExtractSchemaInfo
// classifies a field's physical/logical type.
func LoadStore(path string) (*storage.Schema, [][]value.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	pqFile, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, nil, fmt.Errorf("opening parquet file %s: %w", path, err)
	}

	fields := pqFile.Schema().Fields()
	colNames := make([]string, len(fields))
	colTypes := make([]value.DataType, len(fields))
	for i, field := range fields {
		colNames[i] = field.Name()
		colTypes[i] = columnType(field)
	}
	cols := make([]storage.ColumnDef, len(fields))
	for i, name := range colNames {
		cols[i] = storage.NewColumnDef(name, colTypes[i], true)
	}
	schema, err := storage.NewSchema(cols)
	if err != nil {
		return nil, nil, err
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var rows [][]value.Value
	for {
		rec := make(map[string]interface{})
		if err := reader.Read(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("reading row: %w", err)
		}
		row := make([]value.Value, len(colNames))
		for i, name := range colNames {
			row[i] = scalarOf(rec[name], colTypes[i])
		}
		rows = append(rows, row)
	}
	return schema, rows, nil
}

// columnType classifies one leaf field's value.DataType, preferring its
// logical type (DATE/TIMESTAMP/STRING) and falling back to its physical
// type, the same priority order getUserFriendlyType uses.
func columnType(field parquet.Field) value.DataType {
	t := field.Type()
	if t == nil {
		return value.Utf8
	}
	if lt := t.LogicalType(); lt != nil {
		switch {
		case lt.UTF8 != nil:
			return value.Utf8
		case lt.Date != nil:
			return value.Date
		case lt.Timestamp != nil:
			return value.Timestamp
		case lt.Time != nil:
			return value.Time
		}
	}
	switch t.Kind() {
	case parquet.Boolean:
		return value.Boolean
	case parquet.Int32, parquet.Int64:
		return value.Int64
	case parquet.Float, parquet.Double:
		return value.Float64
	default:
		return value.Utf8
	}
}

// scalarOf converts one map-decoded cell into a value.Value of target,
// treating a missing/nil cell as NULL.
func scalarOf(cell interface{}, target value.DataType) value.Value {
	if cell == nil {
		return value.NewNull()
	}
	switch v := cell.(type) {
	case bool:
		return value.NewBool(v)
	case int32:
		return value.NewInt(int64(v))
	case int64:
		return value.NewInt(v)
	case float32:
		return value.NewFloat(float64(v))
	case float64:
		return value.NewFloat(v)
	case string:
		coerced, err := value.Coerce(value.NewString(v), target)
		if err != nil {
			return value.NewString(v)
		}
		return coerced
	case []byte:
		coerced, err := value.Coerce(value.NewString(string(v)), target)
		if err != nil {
			return value.NewString(string(v))
		}
		return coerced
	case time.Time:
		switch target {
		case value.Date:
			return value.DateFromTime(v)
		case value.Time:
			midnight := time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, v.Location())
			return value.NewTime(v.Sub(midnight).Microseconds())
		default:
			return value.TimestampFromTime(v)
		}
	default:
		return value.NewString(fmt.Sprintf("%v", v))
	}
}

// WriteStore writes schema's rows to a parquet file at path, one column
// per schema entry, typed per value.DataType. Not present in reader/
// parquet.go, which only ever reads.
func WriteStore(path string, schema *storage.Schema, rows [][]value.Value) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	group := make(parquet.Group, len(schema.Columns))
	for _, c := range schema.Columns {
		node := parquetNodeOf(c.Type)
		if c.Nullable {
			node = parquet.Optional(node)
		}
		group[c.Name] = node
	}
	pqSchema := parquet.NewSchema("row", group)

	writer := parquet.NewGenericWriter[map[string]interface{}](f, pqSchema)
	for _, row := range rows {
		rec := make(map[string]interface{}, len(schema.Columns))
		for i, c := range schema.Columns {
			rec[c.Name] = rowCellOf(row[i])
		}
		if _, err := writer.Write([]map[string]interface{}{rec}); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func parquetNodeOf(t value.DataType) parquet.Node {
	switch t {
	case value.Boolean:
		return parquet.Leaf(parquet.BooleanType)
	case value.Int64:
		return parquet.Int(64)
	case value.Float64:
		return parquet.Leaf(parquet.DoubleType)
	case value.Date:
		return parquet.Date()
	case value.Timestamp:
		return parquet.Timestamp(parquet.Microsecond)
	case value.Time:
		return parquet.Leaf(parquet.Int64Type)
	default:
		return parquet.String()
	}
}

func rowCellOf(v value.Value) interface{} {
	if value.IsNull(v) {
		return nil
	}
	switch v.Type {
	case value.Boolean:
		return v.Bool
	case value.Int64:
		return v.I64
	case value.Float64:
		return v.F64
	case value.Date, value.Timestamp, value.Time:
		return v.String()
	default:
		return v.String()
	}
}
