package dashboard

import "healthdash/warehouse"

// View is one page of the dashboard.
type View int

const (
	ViewOverview View = iota
	ViewSchema
	ViewKPIs
	ViewAggregations
	ViewVisualizations
	ViewDataMarts
)

// Views lists the navigation order.
var Views = []View{ViewOverview, ViewSchema, ViewKPIs, ViewAggregations, ViewVisualizations, ViewDataMarts}

func (v View) String() string {
	switch v {
	case ViewOverview:
		return "Overview"
	case ViewSchema:
		return "Schema"
	case ViewKPIs:
		return "KPIs"
	case ViewAggregations:
		return "Aggregations"
	case ViewVisualizations:
		return "Visualizations"
	case ViewDataMarts:
		return "Data Marts"
	}
	return "unknown"
}

// Path returns the URL path of the view.
func (v View) Path() string {
	switch v {
	case ViewSchema:
		return "/schema"
	case ViewKPIs:
		return "/kpis"
	case ViewAggregations:
		return "/aggregations"
	case ViewVisualizations:
		return "/visualizations"
	case ViewDataMarts:
		return "/datamarts"
	}
	return "/"
}

// Selection is one selectable option of a view. Each maps to exactly one
// catalog query and one treatment.
type Selection int

const (
	SelTotalRevenue Selection = iota
	SelTotalVisits
	SelAvgRevenuePerVisit
	SelRevenueByDisease
	SelRevenueByDoctor
	SelRevenueByHospital
	SelRevenueByPatient
	SelVisitsByGender
	SelVisitsByAgeGroup

	SelAggPatientStatistics
	SelAggFinancialMetrics
	SelAggHospitalRevenue
	SelAggPatientsPerDoctor
	SelAggDiseaseCategoryCounts

	SelVizHospitalRevenue
	SelVizPatientsPerDoctor
	SelVizDiseaseCategories

	SelPatientMart
	SelFinancialMart
	SelDoctorMart
	SelDiseaseMart

	numSelections
)

// Selections returns every selection in declaration order.
func Selections() []Selection {
	out := make([]Selection, numSelections)
	for i := range out {
		out[i] = Selection(i)
	}
	return out
}

type selectionInfo struct {
	view  View
	slug  string
	label string
}

var selectionMeta = [numSelections]selectionInfo{
	SelTotalRevenue:       {ViewKPIs, "total-revenue", "Total Revenue ($)"},
	SelTotalVisits:        {ViewKPIs, "total-visits", "Total Visits"},
	SelAvgRevenuePerVisit: {ViewKPIs, "avg-revenue-per-visit", "Avg Revenue per Visit ($)"},
	SelRevenueByDisease:   {ViewKPIs, "revenue-by-disease", "By Disease"},
	SelRevenueByDoctor:    {ViewKPIs, "revenue-by-doctor", "By Doctor"},
	SelRevenueByHospital:  {ViewKPIs, "revenue-by-hospital", "By Hospital"},
	SelRevenueByPatient:   {ViewKPIs, "revenue-by-patient", "By Patient"},
	SelVisitsByGender:     {ViewKPIs, "visits-by-gender", "By Gender"},
	SelVisitsByAgeGroup:   {ViewKPIs, "visits-by-age-group", "By Age Group"},

	SelAggPatientStatistics:     {ViewAggregations, "patient-statistics", "Patient Statistics"},
	SelAggFinancialMetrics:      {ViewAggregations, "financial-metrics", "Financial Metrics"},
	SelAggHospitalRevenue:       {ViewAggregations, "hospital-revenue", "Hospital Revenue"},
	SelAggPatientsPerDoctor:     {ViewAggregations, "patients-per-doctor", "Patients Per Doctor"},
	SelAggDiseaseCategoryCounts: {ViewAggregations, "disease-category-counts", "Disease Category Counts"},

	SelVizHospitalRevenue:   {ViewVisualizations, "viz-hospital-revenue", "Hospital Revenue"},
	SelVizPatientsPerDoctor: {ViewVisualizations, "viz-patients-per-doctor", "Patients Per Doctor"},
	SelVizDiseaseCategories: {ViewVisualizations, "viz-disease-categories", "Disease Category Distribution"},

	SelPatientMart:   {ViewDataMarts, "patient-mart", "Patient Data Mart"},
	SelFinancialMart: {ViewDataMarts, "financial-mart", "Financial Data Mart"},
	SelDoctorMart:    {ViewDataMarts, "doctor-mart", "Doctor Data Mart"},
	SelDiseaseMart:   {ViewDataMarts, "disease-mart", "Disease Data Mart"},
}

func (s Selection) valid() bool { return s >= 0 && s < numSelections }

// View returns the view the selection belongs to.
func (s Selection) View() View {
	if !s.valid() {
		return ViewOverview
	}
	return selectionMeta[s].view
}

// Slug is the stable URL value of the selection.
func (s Selection) Slug() string {
	if !s.valid() {
		return ""
	}
	return selectionMeta[s].slug
}

// Label is the human-readable option text.
func (s Selection) Label() string {
	if !s.valid() {
		return ""
	}
	return selectionMeta[s].label
}

func (s Selection) String() string { return s.Slug() }

// ParseSelection resolves a slug.
func ParseSelection(slug string) (Selection, bool) {
	for i, m := range selectionMeta {
		if m.slug == slug {
			return Selection(i), true
		}
	}
	return 0, false
}

// Treatment is how a result is presented.
type Treatment int

const (
	CurrencyMetric Treatment = iota
	CountMetric
	TableTreatment
	BarChart
	PieChart
	MartPanel
)

// route maps a selection to its query and treatment. It is the only place
// this mapping exists.
func route(sel Selection) (warehouse.QueryName, Treatment, bool) {
	switch sel {
	case SelTotalRevenue:
		return warehouse.TotalRevenue, CurrencyMetric, true
	case SelTotalVisits:
		return warehouse.TotalVisits, CountMetric, true
	case SelAvgRevenuePerVisit:
		return warehouse.AvgRevenuePerVisit, CurrencyMetric, true
	case SelRevenueByDisease:
		return warehouse.RevenueByDisease, BarChart, true
	case SelRevenueByDoctor:
		return warehouse.RevenueByDoctor, BarChart, true
	case SelRevenueByHospital:
		return warehouse.RevenueByHospital, BarChart, true
	case SelRevenueByPatient:
		return warehouse.RevenuePerPatient, BarChart, true
	case SelVisitsByGender:
		return warehouse.VisitsByGender, PieChart, true
	case SelVisitsByAgeGroup:
		return warehouse.VisitsByAgeGroup, PieChart, true

	case SelAggPatientStatistics:
		return warehouse.PatientStatistics, TableTreatment, true
	case SelAggFinancialMetrics:
		return warehouse.FinancialMetrics, TableTreatment, true
	case SelAggHospitalRevenue:
		return warehouse.HospitalRevenue, TableTreatment, true
	case SelAggPatientsPerDoctor:
		return warehouse.PatientsPerDoctor, TableTreatment, true
	case SelAggDiseaseCategoryCounts:
		return warehouse.DiseaseCategoryCounts, TableTreatment, true

	case SelVizHospitalRevenue:
		return warehouse.HospitalRevenue, BarChart, true
	case SelVizPatientsPerDoctor:
		return warehouse.PatientsPerDoctor, BarChart, true
	case SelVizDiseaseCategories:
		return warehouse.DiseaseCategoryCounts, PieChart, true

	case SelPatientMart:
		return warehouse.PatientDataMart, MartPanel, true
	case SelFinancialMart:
		return warehouse.FinancialDataMart, MartPanel, true
	case SelDoctorMart:
		return warehouse.DoctorPerformanceDataMart, MartPanel, true
	case SelDiseaseMart:
		return warehouse.DiseaseAnalyticsDataMart, MartPanel, true
	}
	return "", 0, false
}

// selectionsFor returns the selections of one view whose treatment is in ts.
func selectionsFor(v View, ts ...Treatment) []Selection {
	var out []Selection
	for _, s := range Selections() {
		if s.View() != v {
			continue
		}
		_, t, _ := route(s)
		for _, want := range ts {
			if t == want {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
