package forecast

// TableRow is one forecast observation: the predicted logmove for a
// (store, brand) group under one model at one future week. Value, Lo95 and
// Hi95 are the measure columns; everything else identifies the row.
type TableRow struct {
	Store int     `json:"store"`
	Brand string  `json:"brand"`
	Model string  `json:"model"`
	Week  int     `json:"week"`
	Value float64 `json:"value"`
	Lo95  float64 `json:"lo95"`
	Hi95  float64 `json:"hi95"`
}

// Table is the forecast output for one partition in long format: one row per
// group per model per forecast week
type Table struct {
	Partition string     `json:"partition"`
	Rows      []TableRow `json:"rows"`
}

// RowsFor returns the rows for one group and model, in week order
func (t *Table) RowsFor(store int, brand, model string) []TableRow {
	var out []TableRow
	for _, r := range t.Rows {
		if r.Store == store && r.Brand == brand && r.Model == model {
			out = append(out, r)
		}
	}
	return out
}

// Models returns the distinct model names appearing in the table
func (t *Table) Models() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range t.Rows {
		if !seen[r.Model] {
			seen[r.Model] = true
			names = append(names, r.Model)
		}
	}
	return names
}
