package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrUnusable marks a per-sample file that cannot contribute a frame:
// missing, empty, malformed, or carrying a schema this loader does not
// understand. Callers record the file as unsmashable and move on.
var ErrUnusable = errors.New("unusable quantified file")

// Load reads one per-sample quantified TSV into a one-column frame whose
// column is named by the sample's accession code. The expected schema is
// two tab-separated columns, feature identifier then value, with an
// optional header row.
func Load(path, accession string) (*QuantifiedFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnusable, path, err)
	}
	defer file.Close()

	parsed, err := parseSingleColumn(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnusable, path, err)
	}

	loaded, err := New(parsed.features, []string{accession}, parsed.values)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnusable, path, err)
	}
	return loaded, nil
}

type singleColumn struct {
	features []string
	values   [][]float64
}

func parseSingleColumn(r io.Reader) (singleColumn, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = 2
	reader.LazyQuotes = true

	var parsed singleColumn
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return singleColumn{}, err
		}

		feature := strings.TrimSpace(record[0])
		raw := strings.TrimSpace(record[1])

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// The first row may be a header; anything later is malformed.
			if first {
				first = false
				continue
			}
			return singleColumn{}, fmt.Errorf("non-numeric value %q for feature %q", raw, feature)
		}
		first = false

		if feature == "" {
			return singleColumn{}, errors.New("row with empty feature identifier")
		}
		parsed.features = append(parsed.features, feature)
		parsed.values = append(parsed.values, []float64{value})
	}

	if len(parsed.features) == 0 {
		return singleColumn{}, errors.New("no data rows")
	}
	return parsed, nil
}
