package dashboard

import (
	"encoding/json"

	"healthdash/warehouse"
)

// Figure is a Plotly figure, drawn client-side by plotly.js.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace.
type Trace struct {
	Type   string    `json:"type"`
	Name   string    `json:"name,omitempty"`
	Mode   string    `json:"mode,omitempty"`
	X      []any     `json:"x,omitempty"`
	Y      []any     `json:"y,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// Layout is the subset of Plotly layout the dashboard sets.
type Layout struct {
	Title   string `json:"title"`
	BarMode string `json:"barmode,omitempty"`
	XAxis   *Axis  `json:"xaxis,omitempty"`
	YAxis   *Axis  `json:"yaxis,omitempty"`
}

// Axis is a titled Plotly axis.
type Axis struct {
	Title string `json:"title"`
}

// JSON encodes the figure for a data-figure attribute.
func (f Figure) JSON() string {
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func barFigure(title string, t *warehouse.Table, category, value string) Figure {
	tr := Trace{Type: "bar"}
	for i := range t.Rows {
		v, _ := t.Float(i, value)
		tr.X = append(tr.X, t.String(i, category))
		tr.Y = append(tr.Y, v)
	}
	return Figure{
		Data:   []Trace{tr},
		Layout: Layout{Title: title, XAxis: &Axis{Title: category}, YAxis: &Axis{Title: value}},
	}
}

// coloredBarFigure draws one bar trace per distinct color value, in order of
// first appearance.
func coloredBarFigure(title string, t *warehouse.Table, category, value, color string) Figure {
	idx := make(map[string]int)
	var traces []Trace
	for i := range t.Rows {
		c := t.String(i, color)
		j, ok := idx[c]
		if !ok {
			j = len(traces)
			idx[c] = j
			traces = append(traces, Trace{Type: "bar", Name: c})
		}
		v, _ := t.Float(i, value)
		traces[j].X = append(traces[j].X, t.String(i, category))
		traces[j].Y = append(traces[j].Y, v)
	}
	return Figure{
		Data:   traces,
		Layout: Layout{Title: title, BarMode: "relative", XAxis: &Axis{Title: category}, YAxis: &Axis{Title: value}},
	}
}

func scatterFigure(title string, t *warehouse.Table, x, y, xTitle, yTitle string) Figure {
	tr := Trace{Type: "scatter", Mode: "markers"}
	for i := range t.Rows {
		xv, okx := t.Float(i, x)
		yv, oky := t.Float(i, y)
		if !okx || !oky {
			continue
		}
		tr.X = append(tr.X, xv)
		tr.Y = append(tr.Y, yv)
	}
	return Figure{
		Data:   []Trace{tr},
		Layout: Layout{Title: title, XAxis: &Axis{Title: xTitle}, YAxis: &Axis{Title: yTitle}},
	}
}

// pieFigure draws slices named by category and sized by value.
func pieFigure(title string, t *warehouse.Table, category, value string) Figure {
	tr := Trace{Type: "pie"}
	for i := range t.Rows {
		v, _ := t.Float(i, value)
		tr.Labels = append(tr.Labels, t.String(i, category))
		tr.Values = append(tr.Values, v)
	}
	return Figure{Data: []Trace{tr}, Layout: Layout{Title: title}}
}

func countPieFigure(title string, counts []warehouse.Count) Figure {
	tr := Trace{Type: "pie"}
	for _, c := range counts {
		tr.Labels = append(tr.Labels, c.Label)
		tr.Values = append(tr.Values, float64(c.N))
	}
	return Figure{Data: []Trace{tr}, Layout: Layout{Title: title}}
}

func meanPieFigure(title string, means []warehouse.Mean) Figure {
	tr := Trace{Type: "pie"}
	for _, m := range means {
		tr.Labels = append(tr.Labels, m.Label)
		tr.Values = append(tr.Values, m.Value)
	}
	return Figure{Data: []Trace{tr}, Layout: Layout{Title: title}}
}

// martFigures returns the fixed derived charts of a data mart.
func martFigures(q warehouse.Query, t *warehouse.Table) []Figure {
	r := q.Roles
	switch q.Name {
	case warehouse.PatientDataMart:
		return []Figure{
			countPieFigure("Smoking Status Distribution", t.CountBy("smoker_status", unknownLabel)),
			countPieFigure("Alcohol Consumption Levels", t.CountBy("alcohol_consumption", unknownLabel)),
			countPieFigure("Exercise Habits Distribution", t.CountBy("exercise_frequency", unknownLabel)),
		}
	case warehouse.FinancialDataMart:
		return []Figure{
			countPieFigure("Total Claims by Claim Status", t.CountBy("claim_status", unknownLabel)),
			meanPieFigure("Average Bill Amount by Payment Method", t.MeanBy("payment_method", "total_bill")),
		}
	case warehouse.DoctorPerformanceDataMart:
		return []Figure{
			coloredBarFigure("Total Patients Seen by Each Doctor", t, r.Category, r.Value, r.Color),
			scatterFigure("Doctor Experience vs. Average Bill", t, r.X, r.Y, "Years of Experience", "Avg Bill per Patient"),
		}
	case warehouse.DiseaseAnalyticsDataMart:
		return []Figure{
			countPieFigure("Distribution of Diseases by Category", t.CountBy("category", unknownLabel)),
			barFigure("Number of Cases per Disease", t, r.Category, r.Value),
		}
	}
	return nil
}
