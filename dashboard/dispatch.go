package dashboard

import (
	"context"
	"fmt"

	"healthdash/warehouse"

	"go.uber.org/zap"
)

const (
	noDataNotice = "No data available for this selection."
	unknownLabel = "Unknown"
	martSample   = 3
)

// Runner executes catalog queries. *warehouse.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, q warehouse.Query) (*warehouse.Table, error)
}

// Panel is the rendered outcome of one selection. Exactly one of Err, Notice
// or the treatment-specific content is meaningful.
type Panel struct {
	Selection Selection
	Title     string
	Query     warehouse.Query
	Treatment Treatment

	Err    error
	Notice string

	Metric string
	Table  *warehouse.Table // rows to display
	Result *warehouse.Table // full query result
	Charts []Figure
}

// Failed reports whether the panel's query failed.
func (p Panel) Failed() bool { return p.Err != nil }

// Dispatcher turns selections into panels.
type Dispatcher struct {
	runner Runner
	log    *zap.Logger
}

// NewDispatcher returns a dispatcher running queries through r.
func NewDispatcher(r Runner, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{runner: r, log: log}
}

// Dispatch runs the query routed from sel and shapes its result. Failures are
// carried in the returned panel; they never affect other panels.
func (d *Dispatcher) Dispatch(ctx context.Context, sel Selection) Panel {
	p := Panel{Selection: sel, Title: sel.Label()}

	name, treatment, ok := route(sel)
	if !ok {
		p.Err = fmt.Errorf("unknown selection %d", int(sel))
		return p
	}
	q, ok := warehouse.Lookup(name)
	if !ok {
		p.Err = fmt.Errorf("query %s is not in the catalog", name)
		return p
	}
	p.Query = q
	p.Treatment = treatment

	table, err := d.runner.Run(ctx, q)
	if err != nil {
		d.log.Warn("panel failed", zap.String("selection", sel.Slug()), zap.Error(err))
		p.Err = err
		return p
	}
	p.Result = table
	if table.Empty() {
		p.Notice = noDataNotice
		return p
	}

	switch treatment {
	case CurrencyMetric, CountMetric:
		p.Metric = metricValue(treatment, table, q.Roles.Value)
	case TableTreatment:
		p.Table = table
	case BarChart:
		p.Table = table
		p.Charts = []Figure{barFigure(chartTitle(sel), table, q.Roles.Category, q.Roles.Value)}
	case PieChart:
		p.Table = table
		p.Charts = []Figure{pieFigure(chartTitle(sel), table, q.Roles.Category, q.Roles.Value)}
	case MartPanel:
		p.Table = table.Head(martSample)
		p.Charts = martFigures(q, table)
	}
	return p
}

func metricValue(t Treatment, table *warehouse.Table, col string) string {
	v, ok := table.Float(0, col)
	if !ok {
		return "n/a"
	}
	if t == CurrencyMetric {
		return formatCurrency(v)
	}
	return formatCount(v)
}

func chartTitle(sel Selection) string {
	switch sel.View() {
	case ViewKPIs:
		_, t, _ := route(sel)
		if t == PieChart {
			return "Visits " + sel.Label()
		}
		return "Revenue " + sel.Label()
	}
	return sel.Label()
}
