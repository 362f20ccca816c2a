package export

// Column describes one table column. Width is a relative weight used by the PDF renderer.
type Column struct {
	Key   string
	Label string
	Width float64
}

// Field is a labelled value printed above the table.
type Field struct {
	Label string
	Value string
}

// Dataset is the renderer-independent content of an exported document.
type Dataset struct {
	Title   string
	Fields  []Field
	Columns []Column
	Rows    []map[string]string
	Footer  []Field
}

func (d Dataset) labels() []string {
	labels := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		labels[i] = col.Label
		if labels[i] == "" {
			labels[i] = col.Key
		}
	}
	return labels
}
