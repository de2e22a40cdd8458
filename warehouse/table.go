package warehouse

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Row maps column name to value.
type Row map[string]any

// Table is a materialized query result. Columns come from the result-set
// metadata, so an empty result still names its columns.
type Table struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Head returns a table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// HasColumn reports whether col is part of the result.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Float returns the numeric value at row i, col.
func (t *Table) Float(i int, col string) (float64, bool) {
	switch v := t.Rows[i][col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// String returns the display form of the value at row i, col. NULL is "".
func (t *Table) String(i int, col string) string {
	switch v := t.Rows[i][col].(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}

// Count is one bucket of CountBy.
type Count struct {
	Label string
	N     int
}

// CountBy counts rows per distinct value of col, most frequent first, ties by
// label. NULL and empty values are counted under missingLabel.
func (t *Table) CountBy(col, missingLabel string) []Count {
	idx := make(map[string]int)
	var out []Count
	for i := range t.Rows {
		label := t.String(i, col)
		if label == "" {
			label = missingLabel
		}
		j, ok := idx[label]
		if !ok {
			j = len(out)
			idx[label] = j
			out = append(out, Count{Label: label})
		}
		out[j].N++
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].N != out[b].N {
			return out[a].N > out[b].N
		}
		return out[a].Label < out[b].Label
	})
	return out
}

// Mean is one group of MeanBy.
type Mean struct {
	Label string
	Value float64
}

// MeanBy averages valueCol per distinct groupCol value, ordered by label.
// Rows with a non-numeric value are skipped.
func (t *Table) MeanBy(groupCol, valueCol string) []Mean {
	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[string]*acc)
	for i := range t.Rows {
		v, ok := t.Float(i, valueCol)
		if !ok {
			continue
		}
		label := t.String(i, groupCol)
		a := groups[label]
		if a == nil {
			a = &acc{}
			groups[label] = a
		}
		a.sum += v
		a.n++
	}

	out := make([]Mean, 0, len(groups))
	for label, a := range groups {
		out = append(out, Mean{Label: label, Value: a.sum / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// SortBy returns a copy of the table with rows stably ordered by col. Numbers
// compare numerically and precede non-numeric values, which compare by
// display form.
func (t *Table) SortBy(col string, desc bool) *Table {
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	sorted := &Table{Columns: t.Columns, Rows: rows}

	sort.SliceStable(rows, func(a, b int) bool {
		if desc {
			return sorted.less(b, a, col)
		}
		return sorted.less(a, b, col)
	})
	return sorted
}

func (t *Table) less(a, b int, col string) bool {
	x, xok := t.Float(a, col)
	y, yok := t.Float(b, col)
	if xok && yok {
		return x < y
	}
	if xok != yok {
		return xok
	}
	return t.String(a, col) < t.String(b, col)
}
