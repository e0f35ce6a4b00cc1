package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Column describes one column of a query result.
type Column interface {
	Label() string
}

// Record is a single row keyed by column label. Keys keep the order of the
// columns they came from, both for Labels and when encoded as JSON.
type Record struct {
	labels []string
	values map[string]interface{}
}

func NewRecord() Record {
	return Record{values: map[string]interface{}{}}
}

// Set stores value under label. A label that is already present keeps its
// original position.
func (r *Record) Set(label string, value interface{}) {
	if r.values == nil {
		r.values = map[string]interface{}{}
	}
	if _, ok := r.values[label]; !ok {
		r.labels = append(r.labels, label)
	}
	r.values[label] = value
}

func (r Record) Get(label string) (interface{}, bool) {
	value, ok := r.values[label]
	return value, ok
}

func (r Record) Labels() []string {
	return append([]string(nil), r.labels...)
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range r.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.values[label])
		if err != nil {
			return nil, fmt.Errorf("encode column %q: %w", label, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MapRows turns raw rows into records keyed by the matching column label.
// Values and columns are paired up to the shorter of the two.
func MapRows(rows [][]interface{}, columns []Column) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		record := NewRecord()
		for i, value := range row {
			if i >= len(columns) {
				break
			}
			record.Set(columns[i].Label(), value)
		}
		records = append(records, record)
	}
	return records
}
