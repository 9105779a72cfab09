package core

import (
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
)

// GroupMeanRow is the mean of a value column over one group.
type GroupMeanRow struct {
	Group   string `json:"group"`
	Missing bool   `json:"missing,omitempty"` // the group of rows whose key is missing
	Count   int    `json:"count"`
	Mean    Number `json:"mean"`
}

// GroupMean averages a numeric column per distinct value of by. Groups are
// sorted by key (numerically for a numeric key column), with rows whose key
// is missing gathered in a final group. Missing values are excluded from the
// means; a group without values has a null mean.
func GroupMean(t *Table, by, value string) ([]GroupMeanRow, error) {
	gc, ok := t.Column(by)
	if !ok {
		return nil, missingColumn(t, by)
	}
	vc, err := numericColumn(t, value)
	if err != nil {
		return nil, err
	}

	type group struct {
		key    string
		num    float64
		values []float64
	}
	var (
		groups  []*group
		index   = make(map[string]*group)
		missing *group
	)
	for i := 0; i < t.NumRows(); i++ {
		var g *group
		switch {
		case gc.IsNull(i):
			if missing == nil {
				missing = &group{}
			}
			g = missing
		default:
			// Numeric keys group by value so "1" and "1.0" fall together.
			key := gc.Cell(i)
			num, isNum := gc.Float(i)
			if isNum {
				key = formatKey(num)
			}
			if g = index[key]; g == nil {
				g = &group{key: gc.Cell(i), num: num}
				index[key] = g
				groups = append(groups, g)
			}
		}
		if v, ok := vc.Float(i); ok {
			g.values = append(g.values, v)
		}
	}

	if gc.Type == ColumnNumeric {
		sort.SliceStable(groups, func(a, b int) bool { return groups[a].num < groups[b].num })
	} else {
		sort.SliceStable(groups, func(a, b int) bool { return groups[a].key < groups[b].key })
	}
	if missing != nil {
		groups = append(groups, missing)
	}

	out := make([]GroupMeanRow, len(groups))
	for i, g := range groups {
		row := GroupMeanRow{Group: g.key, Missing: g == missing, Count: len(g.values), Mean: nan}
		if len(g.values) > 0 {
			mean, _ := stats.Mean(g.values)
			row.Mean = Number(mean)
		}
		out[i] = row
	}
	return out, nil
}

func formatKey(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
