package core

import (
	"github.com/montanaflynn/stats"
)

// ColumnSummary holds the descriptive statistics of one numeric column.
// Null cells are excluded; Std is the sample standard deviation.
type ColumnSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Number `json:"mean"`
	Std    Number `json:"std"`
	Min    Number `json:"min"`
	Q25    Number `json:"q25"`
	Median Number `json:"median"`
	Q75    Number `json:"q75"`
	Max    Number `json:"max"`
}

// Describe summarizes every numeric column of t, in column order.
func Describe(t *Table) []ColumnSummary {
	var out []ColumnSummary
	for _, c := range t.Columns() {
		if c.Type == ColumnNumeric {
			out = append(out, summarize(c.Name, c.Floats()))
		}
	}
	return out
}

func summarize(name string, data []float64) ColumnSummary {
	s := ColumnSummary{
		Column: name,
		Count:  len(data),
		Mean:   nan, Std: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan,
	}
	if len(data) == 0 {
		return s
	}

	mean, _ := stats.Mean(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	median, _ := stats.Median(data)
	s.Mean, s.Min, s.Max, s.Median = Number(mean), Number(min), Number(max), Number(median)

	if len(data) > 1 {
		std, _ := stats.StandardDeviationSample(data)
		s.Std = Number(std)
	}

	sorted := sortedCopy(data)
	s.Q25 = Number(quantile(sorted, 0.25))
	s.Q75 = Number(quantile(sorted, 0.75))
	return s
}
