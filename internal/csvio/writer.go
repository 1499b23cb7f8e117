package csvio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

type Writer struct {
	cw *csv.Writer
}

func NewWriter(w io.Writer, delim rune) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	return &Writer{cw: cw}
}

// WriteAll writes a header (the union of record keys in first-seen order)
// followed by one line per record. Missing keys are written as empty fields
// and nil records are skipped.
func (w *Writer) WriteAll(records []Record) error {
	header := UnionKeys(records)
	if err := w.cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for i, k := range header {
			v, _ := rec.Get(k)
			row[i] = FormatValue(v)
		}
		if err := w.cw.Write(row); err != nil {
			return err
		}
	}
	w.cw.Flush()
	return w.cw.Error()
}

func UnionKeys(records []Record) []string {
	var keys []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, k := range rec.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// FormatValue renders a dynamically typed JSON value as a CSV field.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
