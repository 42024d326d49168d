package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadTSV parses a full feature matrix from tab-separated values: a
// header row whose first cell is the index label, then one row per
// feature. The inverse of WriteTSV.
func ReadTSV(r io.Reader) (*QuantifiedFrame, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, errors.New("matrix has no sample columns")
	}
	columns := make([]string, len(header)-1)
	copy(columns, header[1:])

	var features []string
	var values [][]float64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		feature := strings.TrimSpace(record[0])
		row := make([]float64, len(columns))
		for i, raw := range record[1:] {
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("non-numeric value %q for feature %q", raw, feature)
			}
			row[i] = value
		}
		features = append(features, feature)
		values = append(values, row)
	}

	return New(features, columns, values)
}
