// Package scale rescales feature matrices the way the smashing pipeline
// delivers them: per feature, across samples.
package scale

import (
	"fmt"
	"math"
	"strings"

	"github.com/gonum/stat"
	"github.com/montanaflynn/stats"

	"smasher/internal/frame"
)

// Method names a feature scaling family.
type Method string

const (
	MethodNone     Method = "NONE"
	MethodMinMax   Method = "MINMAX"
	MethodStandard Method = "STANDARD"
	MethodRobust   Method = "ROBUST"
)

// Methods returns the known scaling methods in presentation order.
func Methods() []Method {
	return []Method{MethodNone, MethodMinMax, MethodStandard, MethodRobust}
}

// ParseMethod normalizes a configuration value into a known Method.
func ParseMethod(value string) (Method, error) {
	normalized := Method(strings.ToUpper(strings.TrimSpace(value)))
	switch normalized {
	case MethodNone, MethodMinMax, MethodStandard, MethodRobust:
		return normalized, nil
	case "":
		return MethodNone, nil
	default:
		return "", fmt.Errorf("unknown scale method %q", value)
	}
}

// columnScaler rescales one column of a samples-as-rows matrix.
type columnScaler func(column []float64) ([]float64, error)

// Apply rescales a features-as-rows matrix per feature. The matrix is
// transposed so features become columns, each column is fit and
// transformed independently, and the result is transposed back so the
// output keeps the input's orientation and labels. MethodNone returns
// the input frame untouched.
func Apply(input *frame.QuantifiedFrame, method Method) (*frame.QuantifiedFrame, error) {
	if method == MethodNone {
		return input, nil
	}

	scaler, err := scalerFor(method)
	if err != nil {
		return nil, err
	}

	transposed := input.Transpose()
	features := transposed.Features()
	columns := transposed.Columns()

	scaled := make([][]float64, len(features))
	for i := range features {
		scaled[i] = make([]float64, len(columns))
	}
	for j := range columns {
		column := make([]float64, len(features))
		for i := range features {
			column[i] = transposed.Value(i, j)
		}
		rescaled, err := scaler(column)
		if err != nil {
			return nil, fmt.Errorf("scale column %s: %w", columns[j], err)
		}
		for i := range features {
			scaled[i][j] = rescaled[i]
		}
	}

	result, err := frame.New(features, columns, scaled)
	if err != nil {
		return nil, err
	}
	return result.Transpose(), nil
}

func scalerFor(method Method) (columnScaler, error) {
	switch method {
	case MethodMinMax:
		return minMaxScale, nil
	case MethodStandard:
		return standardScale, nil
	case MethodRobust:
		return robustScale, nil
	default:
		return nil, fmt.Errorf("unknown scale method %q", method)
	}
}

func minMaxScale(column []float64) ([]float64, error) {
	low, err := stats.Min(column)
	if err != nil {
		return nil, err
	}
	high, err := stats.Max(column)
	if err != nil {
		return nil, err
	}
	return shiftAndDivide(column, low, high-low), nil
}

func standardScale(column []float64) ([]float64, error) {
	mean := stat.Mean(column, nil)
	// Population standard deviation, matching the fit-then-transform
	// behavior of the usual preprocessing toolkits.
	return shiftAndDivide(column, mean, populationStdDev(column, mean)), nil
}

func robustScale(column []float64) ([]float64, error) {
	median, err := stats.Median(column)
	if err != nil {
		return nil, err
	}
	quartiles, err := stats.Quartile(column)
	if err != nil {
		return nil, err
	}
	return shiftAndDivide(column, median, quartiles.Q3-quartiles.Q1), nil
}

// shiftAndDivide centers then divides, mapping a degenerate spread to
// zeros rather than dividing by it. Quartiles of a single observation
// come back NaN rather than as an error, so NaN counts as degenerate.
func shiftAndDivide(column []float64, center, spread float64) []float64 {
	out := make([]float64, len(column))
	for i, value := range column {
		if spread == 0 || math.IsNaN(spread) {
			out[i] = 0
			continue
		}
		out[i] = (value - center) / spread
	}
	return out
}

func populationStdDev(column []float64, mean float64) float64 {
	if len(column) == 0 {
		return 0
	}
	var sum float64
	for _, value := range column {
		diff := value - mean
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(column)))
}
