package dashboard

import (
	"fmt"
	"net/http"
	"net/url"

	"healthdash/etl"
	"healthdash/warehouse"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

const plotlyJS = "https://cdn.plot.ly/plotly-2.35.2.min.js"

const pageCSS = `
body{margin:0;font-family:system-ui,-apple-system,"Segoe UI",sans-serif;color:#1f2328;background:#f6f8fa}
.app-shell{display:flex;min-height:100vh}
.app-sidebar{width:220px;background:#24292f;color:#fff;padding:1.25rem 1rem}
.app-sidebar a{display:block;color:#d0d7de;text-decoration:none;padding:.45rem .5rem;border-radius:6px}
.app-sidebar a.active,.app-sidebar a:hover{background:#32383f;color:#fff}
.app-main{flex:1;padding:1.5rem 2rem}
.metrics{display:flex;gap:1rem;margin-bottom:1.5rem}
.metric{flex:1;background:#fff;border:1px solid #d0d7de;border-radius:8px;padding:1rem}
.metric-label{display:block;color:#57606a;font-size:.85rem}
.metric strong{font-size:1.6rem}
.card{background:#fff;border:1px solid #d0d7de;border-radius:8px;padding:1rem;margin-bottom:1rem}
.flash{padding:.75rem 1rem;border-radius:6px;margin:.5rem 0}
.flash-warn{background:#fff8c5;border:1px solid #d4a72c}
.flash-error{background:#ffebe9;border:1px solid #ff8182}
table.data{border-collapse:collapse;width:100%;background:#fff}
table.data th,table.data td{border:1px solid #d0d7de;padding:.35rem .6rem;text-align:left}
table.data th{background:#f6f8fa}
table.data th a{color:inherit;text-decoration:none}
.chart{min-height:420px}
`

const plotlyBoot = `document.querySelectorAll("[data-figure]").forEach(function(el){var f=JSON.parse(el.getAttribute("data-figure"));Plotly.newPlot(el,f.data,f.layout,{responsive:true});});`

func render(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func appPage(active View, title string, body ...gomponents.Node) gomponents.Node {
	nav := make([]gomponents.Node, 0, len(Views))
	for _, v := range Views {
		className := "nav-link"
		if v == active {
			className += " active"
		}
		nav = append(nav, html.A(html.Href(v.Path()), html.Class(className), gomponents.Text(v.String())))
	}

	return html.Doctype(html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | Healthcare Analytics Dashboard")),
			html.Link(html.Rel("icon"), html.Href("data:,")),
			html.StyleEl(gomponents.Raw(pageCSS)),
			html.Script(html.Src(plotlyJS)),
		),
		html.Body(
			html.Main(html.Class("app-shell"),
				html.Aside(html.Class("app-sidebar"),
					html.Strong(gomponents.Text("Navigation")),
					html.Nav(gomponents.Group(nav)),
				),
				html.Section(html.Class("app-main"),
					html.H1(gomponents.Text(title)),
					gomponents.Group(body),
				),
			),
			html.Script(gomponents.Raw(plotlyBoot)),
		),
	))
}

func overviewPage() gomponents.Node {
	return appPage(ViewOverview, "Project Overview",
		html.Div(html.Class("card"),
			html.P(gomponents.Text(
				"A healthcare provider analytics repository built from a publicly available hospital visit dataset. "+
					"A raw extract is cleaned and reshaped into a star schema of one visit fact table and five "+
					"dimensions, loaded into a relational warehouse, and summarized here as key performance "+
					"indicators, aggregations, visualizations and data marts for provider productivity and "+
					"revenue analytics.")),
		),
		html.Div(html.Class("card"),
			html.H3(gomponents.Text("Views")),
			html.Ul(gomponents.Map(Views[1:], func(v View) gomponents.Node {
				return html.Li(html.A(html.Href(v.Path()), gomponents.Text(v.String())))
			})),
		),
	)
}

func schemaPage() gomponents.Node {
	cards := make([]gomponents.Node, 0, len(etl.Tables))
	for _, def := range etl.Tables {
		kind := "dimension"
		if def.Fact {
			kind = "fact"
		}
		rows := make([]gomponents.Node, 0, len(def.Columns))
		for _, c := range def.Columns {
			key := ""
			switch {
			case c.Name == def.Key:
				key = "PK"
			case def.Fact && c.Name != def.Key && isDimensionKey(c.Name):
				key = "FK"
			}
			rows = append(rows, html.Tr(
				html.Td(html.Code(gomponents.Text(c.Name))),
				html.Td(gomponents.Text(c.Type)),
				html.Td(gomponents.Text(key)),
			))
		}
		cards = append(cards, html.Div(html.Class("card"),
			html.H3(gomponents.Textf("%s (%s)", def.Name, kind)),
			html.P(gomponents.Text(def.Description)),
			html.Table(html.Class("data"),
				html.THead(html.Tr(html.Th(gomponents.Text("Column")), html.Th(gomponents.Text("Type")), html.Th(gomponents.Text("Key")))),
				html.TBody(gomponents.Group(rows)),
			),
		))
	}
	return appPage(ViewSchema, "Database Schema", gomponents.Group(cards))
}

func isDimensionKey(col string) bool {
	for _, def := range etl.Tables {
		if !def.Fact && def.Key == col {
			return true
		}
	}
	return false
}

func kpiPage(metrics []Panel, revenueOpts []Selection, revenue Panel, visitsOpts []Selection, visits Panel) gomponents.Node {
	return appPage(ViewKPIs, "Key Performance Indicators",
		html.Div(html.Class("metrics"), gomponents.Map(metrics, metricNode)),
		html.H2(gomponents.Text("Revenue Breakdown")),
		selector(ViewKPIs, "revenue", "Select Revenue Type", revenueOpts, revenue.Selection),
		panelNode(revenue, nil),
		html.H2(gomponents.Text("Visits Analysis")),
		selector(ViewKPIs, "visits", "Select Visit Analysis", visitsOpts, visits.Selection),
		panelNode(visits, nil),
	)
}

// selectionPage renders a view with one selector and the chosen panel.
func selectionPage(v View, title, prompt string, opts []Selection, p Panel, order *tableSort) gomponents.Node {
	return appPage(v, title,
		selector(v, "q", prompt, opts, p.Selection),
		panelNode(p, order),
	)
}

func selector(v View, param, prompt string, opts []Selection, current Selection) gomponents.Node {
	return html.Form(html.Method("get"), html.Action(v.Path()), html.Class("card"),
		html.Label(html.For(param), gomponents.Text(prompt+" ")),
		html.Select(html.ID(param), html.Name(param), gomponents.Attr("onchange", "this.form.submit()"),
			gomponents.Map(opts, func(s Selection) gomponents.Node {
				return html.Option(html.Value(s.Slug()), gomponents.If(s == current, html.Selected()), gomponents.Text(s.Label()))
			}),
		),
		gomponents.Raw(" "),
		html.Button(html.Type("submit"), gomponents.Text("Show")),
	)
}

func metricNode(p Panel) gomponents.Node {
	value := p.Metric
	var detail gomponents.Node
	switch {
	case p.Failed():
		value = "unavailable"
		detail = html.P(html.Class("flash flash-error"), gomponents.Text(p.Err.Error()))
	case p.Notice != "":
		value = "no data"
		detail = html.P(html.Class("flash flash-warn"), gomponents.Text(p.Notice))
	}
	return html.Div(html.Class("metric"),
		html.Span(html.Class("metric-label"), gomponents.Text(p.Title)),
		html.Strong(gomponents.Text(value)),
		detail,
	)
}

func panelNode(p Panel, order *tableSort) gomponents.Node {
	if p.Failed() {
		return html.Div(html.Class("flash flash-error"), gomponents.Textf("Could not load %s: %v", p.Title, p.Err))
	}
	if p.Notice != "" {
		return html.Div(html.Class("flash flash-warn"), gomponents.Text(p.Notice))
	}

	switch p.Treatment {
	case CurrencyMetric, CountMetric:
		return metricNode(p)
	case TableTreatment:
		return html.Div(html.Class("card"),
			tableNode(p.Table, order),
			html.P(html.A(html.Href(exportPath(p.Selection)), gomponents.Text("Download as XLSX"))),
		)
	case MartPanel:
		return html.Div(
			html.Div(html.Class("card"),
				html.H3(gomponents.Text("Sample Data from "+p.Title)),
				tableNode(p.Table, nil),
			),
			html.H3(gomponents.Text(martHeading(p.Query.Name))),
			gomponents.Map(p.Charts, figureNode),
		)
	default:
		return html.Div(gomponents.Map(p.Charts, figureNode))
	}
}

func martHeading(name warehouse.QueryName) string {
	switch name {
	case warehouse.PatientDataMart:
		return "Patient Lifestyle Analysis"
	case warehouse.FinancialDataMart:
		return "Financial Insights"
	case warehouse.DoctorPerformanceDataMart:
		return "Doctor Performance Metrics"
	case warehouse.DiseaseAnalyticsDataMart:
		return "Disease Analytics"
	}
	return ""
}

func figureNode(f Figure) gomponents.Node {
	return html.Div(html.Class("card chart"), gomponents.Attr("data-figure", f.JSON()))
}

// tableNode renders t. With a non-nil order the header cells link to the
// table sorted by that column, toggling direction on the active column.
func tableNode(t *warehouse.Table, order *tableSort) gomponents.Node {
	head := make([]gomponents.Node, len(t.Columns))
	for i, c := range t.Columns {
		if order == nil {
			head[i] = html.Th(gomponents.Text(c))
			continue
		}
		dir, mark := "asc", ""
		if c == order.column {
			if order.desc {
				mark = " ▼"
			} else {
				dir, mark = "desc", " ▲"
			}
		}
		href := order.base + "&sort=" + url.QueryEscape(c) + "&dir=" + dir
		head[i] = html.Th(html.A(html.Href(href), gomponents.Text(c+mark)))
	}
	rows := make([]gomponents.Node, len(t.Rows))
	for i := range t.Rows {
		cells := make([]gomponents.Node, len(t.Columns))
		for j, c := range t.Columns {
			cells[j] = html.Td(gomponents.Text(t.String(i, c)))
		}
		rows[i] = html.Tr(cells...)
	}
	return html.Table(html.Class("data"),
		html.THead(html.Tr(head...)),
		html.TBody(rows...),
	)
}

func exportPath(s Selection) string {
	return fmt.Sprintf("/export/%s.xlsx", s.Slug())
}

func errorPage(status int, message string) gomponents.Node {
	return appPage(ViewOverview, http.StatusText(status),
		html.Div(html.Class("flash flash-error"), gomponents.Text(message)),
	)
}
