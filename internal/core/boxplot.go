package core

import (
	"github.com/montanaflynn/stats"
)

// BoxStats are the box-plot statistics of one group.
// Whiskers reach the most extreme values within 1.5 IQR of the box; values
// beyond them are outliers.
type BoxStats struct {
	Group        string    `json:"group"`
	Count        int       `json:"count"`
	Min          float64   `json:"min"`
	Q1           float64   `json:"q1"`
	Median       float64   `json:"median"`
	Q3           float64   `json:"q3"`
	Max          float64   `json:"max"`
	LowerWhisker float64   `json:"lowerWhisker"`
	UpperWhisker float64   `json:"upperWhisker"`
	Outliers     []float64 `json:"outliers"`
}

// BoxPlot computes box statistics of a numeric column, split by the values of
// the by column in order of first appearance. An empty by yields one group
// named after the value column. Rows with a missing value or group are skipped,
// and groups without values are omitted.
func BoxPlot(t *Table, value, by string) ([]BoxStats, error) {
	vc, err := numericColumn(t, value)
	if err != nil {
		return nil, err
	}

	var gc *Column
	if by != "" {
		var ok bool
		if gc, ok = t.Column(by); !ok {
			return nil, missingColumn(t, by)
		}
	}

	var order []string
	groups := make(map[string][]float64)
	for i := 0; i < t.NumRows(); i++ {
		v, ok := vc.Float(i)
		if !ok {
			continue
		}
		key := value
		if gc != nil {
			if gc.IsNull(i) {
				continue
			}
			key = gc.Cell(i)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], v)
	}

	out := make([]BoxStats, 0, len(order))
	for _, key := range order {
		out = append(out, boxStats(key, groups[key]))
	}
	return out, nil
}

func boxStats(group string, data []float64) BoxStats {
	sorted := sortedCopy(data)
	min, _ := stats.Min(sorted)
	max, _ := stats.Max(sorted)
	median, _ := stats.Median(sorted)

	b := BoxStats{
		Group:    group,
		Count:    len(sorted),
		Min:      min,
		Q1:       quantile(sorted, 0.25),
		Median:   median,
		Q3:       quantile(sorted, 0.75),
		Max:      max,
		Outliers: []float64{},
	}

	iqr := b.Q3 - b.Q1
	lowFence, highFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = b.Q1, b.Q3

	for _, v := range sorted {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		if v < b.LowerWhisker {
			b.LowerWhisker = v
		}
		if v > b.UpperWhisker {
			b.UpperWhisker = v
		}
	}
	return b
}
