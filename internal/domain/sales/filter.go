package sales

// Filter returns the rows of table matching spec, in their original order.
// Categorical constraints and the date range combine with AND. An empty result
// is valid. The input table is never modified.
func Filter(table Table, spec FilterSpec) (Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	out := make(Table, 0, len(table)/4)
	for _, tx := range table {
		if spec.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Run filters table with spec and analyzes the subset.
func Run(table Table, spec FilterSpec) (*Bundle, error) {
	subset, err := Filter(table, spec)
	if err != nil {
		return nil, err
	}
	return Analyze(subset), nil
}
