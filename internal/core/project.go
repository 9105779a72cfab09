package core

// Project returns a table holding exactly the named columns, in the order given.
// Repeated names keep their first position. An empty list yields a table with
// no columns that still reports t's row count.
func Project(t *Table, names []string) (*Table, error) {
	seen := make(map[string]bool, len(names))
	cols := make([]*Column, 0, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		col, ok := t.Column(name)
		if !ok {
			return nil, missingColumn(t, name)
		}
		seen[name] = true
		cols = append(cols, col)
	}

	// Columns are immutable, so the projection shares them with t.
	return newTable(cols, t.NumRows())
}
