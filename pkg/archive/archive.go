// Package archive stores rendered diagrams in a parquet file.
package archive

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// Diagram is one rendered position. Error is set instead of SVG when the
// render failed.
type Diagram struct {
	ID       string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SFEN     string `parquet:"name=sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastMove string `parquet:"name=last_move, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title    string `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	SVG      string `parquet:"name=svg, type=BYTE_ARRAY, convertedtype=UTF8"`
	PNG      string `parquet:"name=png, type=BYTE_ARRAY"`
	Error    string `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
	Pieces   int32  `parquet:"name=pieces, type=INT32"`
}

func (d Diagram) Failed() bool { return d.Error != "" }

type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

//go:embed schema.json
var schemaJSON []byte

const readBatch = 1024

func LoadSchema() (Schema, error) {
	var schema Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return Schema{}, fmt.Errorf("archive schema: %w", err)
	}
	return schema, nil
}

// Write drains rows into a SNAPPY compressed parquet file at path. rows is
// read to the end even when writing fails, so senders never block.
func Write(path string, rows <-chan Diagram, parallel int64) (err error) {
	defer func() {
		if err != nil {
			for range rows {
			}
		}
	}()

	schema, err := LoadSchema()
	if err != nil {
		return err
	}
	if err := ValidateSchema(schema, Diagram{}); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(Diagram), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for row := range rows {
		if err := parquetWriter.Write(row); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// Scan calls fn for every row of the archive at path, in file order.
func Scan(path string, parallel int64, fn func(Diagram) error) error {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(Diagram), parallel)
	if err != nil {
		return err
	}
	defer parquetReader.ReadStop()

	rows := int(parquetReader.GetNumRows())
	batchSize := readBatch
	for offset := 0; offset < rows; offset += batchSize {
		if remain := rows - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]Diagram, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return err
		}
		for i := range batch {
			if err := fn(batch[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func Read(path string, parallel int64) ([]Diagram, error) {
	var out []Diagram
	err := Scan(path, parallel, func(d Diagram) error {
		out = append(out, d)
		return nil
	})
	return out, err
}

// ValidateSchema checks that the parquet tags of sample describe exactly
// the columns of schema, with matching types and nullability.
func ValidateSchema(schema Schema, sample any) error {
	want := make(map[string]Field, len(schema.Fields))
	for _, field := range schema.Fields {
		want[field.Name] = field
	}
	got := structColumns(sample)

	var missing, extra, mismatched []string
	for name := range want {
		if _, ok := got[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name, col := range got {
		field, ok := want[name]
		if !ok {
			extra = append(extra, name)
			continue
		}
		if col.Type != field.Type || col.Nullable != field.Nullable {
			mismatched = append(mismatched, fmt.Sprintf("%s(%s,nullable=%t want %s,nullable=%t)",
				name, col.Type, col.Nullable, field.Type, field.Nullable))
		}
	}
	if len(missing) == 0 && len(extra) == 0 && len(mismatched) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	sort.Strings(mismatched)
	return fmt.Errorf("parquet schema mismatch: missing=%v extra=%v mismatched=%v", missing, extra, mismatched)
}

// structColumns reads the parquet tag of every field of sample into the
// column description used by schema.json.
func structColumns(sample any) map[string]Field {
	cols := map[string]Field{}
	v := reflect.TypeOf(sample)
	for i := 0; i < v.NumField(); i++ {
		tag := parseParquetTag(v.Field(i).Tag.Get("parquet"))
		if tag["name"] == "" {
			continue
		}
		cols[tag["name"]] = Field{
			Name:     tag["name"],
			Type:     columnType(tag["type"], tag["convertedtype"]),
			Nullable: tag["repetitiontype"] == "OPTIONAL",
		}
	}
	return cols
}

func columnType(physical, converted string) string {
	switch physical {
	case "BYTE_ARRAY":
		if converted == "UTF8" {
			return "string"
		}
		return "binary"
	case "INT32", "INT64":
		return "integer"
	case "BOOLEAN":
		return "boolean"
	case "FLOAT", "DOUBLE":
		return "number"
	}
	return strings.ToLower(physical)
}

func parseParquetTag(tag string) map[string]string {
	kv := map[string]string{}
	for _, part := range strings.Split(tag, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) == 2 {
			kv[strings.ToLower(pair[0])] = pair[1]
		}
	}
	return kv
}
