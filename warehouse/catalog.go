package warehouse

// QueryName identifies one catalog entry.
type QueryName string

const (
	PatientStatistics     QueryName = "patient_statistics"
	FinancialMetrics      QueryName = "financial_metrics"
	HospitalRevenue       QueryName = "hospital_revenue"
	PatientsPerDoctor     QueryName = "patients_per_doctor"
	DiseaseCategoryCounts QueryName = "disease_category_counts"

	TotalRevenue       QueryName = "total_revenue"
	TotalVisits        QueryName = "total_visits"
	AvgRevenuePerVisit QueryName = "avg_revenue_per_visit"
	RevenueByDisease   QueryName = "revenue_by_disease"
	RevenueByDoctor    QueryName = "revenue_by_doctor"
	RevenueByHospital  QueryName = "revenue_by_hospital"
	RevenuePerPatient  QueryName = "revenue_per_patient"
	VisitsByGender     QueryName = "visits_by_gender"
	VisitsByAgeGroup   QueryName = "visits_by_age_group"

	PatientDataMart           QueryName = "patient_data_mart"
	FinancialDataMart         QueryName = "financial_data_mart"
	DoctorPerformanceDataMart QueryName = "doctor_performance_data_mart"
	DiseaseAnalyticsDataMart  QueryName = "disease_analytics_data_mart"
)

// Group classifies catalog entries.
type Group string

const (
	GroupAggregation Group = "aggregation"
	GroupKPI         Group = "kpi"
	GroupDataMart    Group = "datamart"
)

// Roles names the result columns a chart draws from.
type Roles struct {
	Category string
	Value    string
	Color    string
	X, Y     string
}

// Query is a named, parameterless, read-only statement with a declared
// result shape.
type Query struct {
	Name    QueryName
	Group   Group
	Title   string
	SQL     string
	Columns []string
	Roles   Roles
}

// Scalar aggregates carry HAVING COUNT(*) > 0 so an empty fact table yields
// zero rows instead of a single row of NULLs.
var catalog = []Query{
	{
		Name:  PatientStatistics,
		Group: GroupAggregation,
		Title: "Patient Statistics",
		SQL: `SELECT COUNT(DISTINCT f.patient_id) AS total_patients,
       CAST(AVG(p.age) AS FLOAT8) AS average_age,
       COUNT(f.visit_id) AS total_visits
FROM hospital_visits_fact f
JOIN patient_dim p ON f.patient_id = p.patient_id
HAVING COUNT(*) > 0`,
		Columns: []string{"total_patients", "average_age", "total_visits"},
	},
	{
		Name:  FinancialMetrics,
		Group: GroupAggregation,
		Title: "Financial Metrics",
		SQL: `SELECT CAST(AVG(total_bill) AS FLOAT8) AS average_bill_per_visit,
       CAST(SUM(total_bill) AS FLOAT8) AS total_revenue
FROM hospital_visits_fact
HAVING COUNT(*) > 0`,
		Columns: []string{"average_bill_per_visit", "total_revenue"},
	},
	{
		Name:  HospitalRevenue,
		Group: GroupAggregation,
		Title: "Hospital Revenue",
		SQL: `SELECT h.hospital_name,
       CAST(SUM(f.total_bill) AS FLOAT8) AS revenue
FROM hospital_visits_fact f
JOIN hospital_dim h ON f.hospital_id = h.hospital_id
GROUP BY h.hospital_name
ORDER BY h.hospital_name`,
		Columns: []string{"hospital_name", "revenue"},
		Roles:   Roles{Category: "hospital_name", Value: "revenue"},
	},
	{
		Name:  PatientsPerDoctor,
		Group: GroupAggregation,
		Title: "Patients Per Doctor",
		SQL: `SELECT d.doctor_name,
       COUNT(DISTINCT f.patient_id) AS patient_count
FROM hospital_visits_fact f
JOIN doctor_dim d ON f.doctor_id = d.doctor_id
GROUP BY d.doctor_name
ORDER BY d.doctor_name`,
		Columns: []string{"doctor_name", "patient_count"},
		Roles:   Roles{Category: "doctor_name", Value: "patient_count"},
	},
	{
		Name:  DiseaseCategoryCounts,
		Group: GroupAggregation,
		Title: "Disease Category Counts",
		SQL: `SELECT d.category,
       COUNT(f.disease_id) AS disease_count
FROM hospital_visits_fact f
JOIN disease_dim d ON f.disease_id = d.disease_id
GROUP BY d.category
ORDER BY d.category`,
		Columns: []string{"category", "disease_count"},
		Roles:   Roles{Category: "category", Value: "disease_count"},
	},

	{
		Name:  TotalRevenue,
		Group: GroupKPI,
		Title: "Total Revenue",
		SQL: `SELECT CAST(SUM(total_bill) AS FLOAT8) AS total_revenue
FROM hospital_visits_fact
HAVING COUNT(*) > 0`,
		Columns: []string{"total_revenue"},
		Roles:   Roles{Value: "total_revenue"},
	},
	{
		Name:  TotalVisits,
		Group: GroupKPI,
		Title: "Total Visits",
		SQL: `SELECT COUNT(visit_id) AS total_visits
FROM hospital_visits_fact
HAVING COUNT(*) > 0`,
		Columns: []string{"total_visits"},
		Roles:   Roles{Value: "total_visits"},
	},
	{
		Name:  AvgRevenuePerVisit,
		Group: GroupKPI,
		Title: "Avg Revenue per Visit",
		SQL: `SELECT CAST(AVG(total_bill) AS FLOAT8) AS avg_revenue_per_visit
FROM hospital_visits_fact
HAVING COUNT(*) > 0`,
		Columns: []string{"avg_revenue_per_visit"},
		Roles:   Roles{Value: "avg_revenue_per_visit"},
	},
	{
		Name:  RevenueByDisease,
		Group: GroupKPI,
		Title: "Revenue By Disease",
		SQL: `SELECT d.disease_name,
       CAST(SUM(f.total_bill) AS FLOAT8) AS revenue
FROM hospital_visits_fact f
JOIN disease_dim d ON f.disease_id = d.disease_id
GROUP BY d.disease_name
ORDER BY revenue DESC, d.disease_name`,
		Columns: []string{"disease_name", "revenue"},
		Roles:   Roles{Category: "disease_name", Value: "revenue"},
	},
	{
		Name:  RevenueByDoctor,
		Group: GroupKPI,
		Title: "Revenue By Doctor",
		SQL: `SELECT d.doctor_name,
       CAST(SUM(f.total_bill) AS FLOAT8) AS revenue
FROM hospital_visits_fact f
JOIN doctor_dim d ON f.doctor_id = d.doctor_id
GROUP BY d.doctor_name
ORDER BY revenue DESC, d.doctor_name`,
		Columns: []string{"doctor_name", "revenue"},
		Roles:   Roles{Category: "doctor_name", Value: "revenue"},
	},
	{
		Name:  RevenueByHospital,
		Group: GroupKPI,
		Title: "Revenue By Hospital",
		SQL: `SELECT h.hospital_name,
       CAST(SUM(f.total_bill) AS FLOAT8) AS revenue
FROM hospital_visits_fact f
JOIN hospital_dim h ON f.hospital_id = h.hospital_id
GROUP BY h.hospital_name
ORDER BY revenue DESC, h.hospital_name`,
		Columns: []string{"hospital_name", "revenue"},
		Roles:   Roles{Category: "hospital_name", Value: "revenue"},
	},
	{
		Name:  RevenuePerPatient,
		Group: GroupKPI,
		Title: "Revenue By Patient",
		SQL: `SELECT p.patient_id,
       p.name AS patient_name,
       CAST(SUM(f.total_bill) AS FLOAT8) AS revenue
FROM hospital_visits_fact f
JOIN patient_dim p ON f.patient_id = p.patient_id
GROUP BY p.patient_id, p.name
ORDER BY revenue DESC, p.patient_id`,
		Columns: []string{"patient_id", "patient_name", "revenue"},
		Roles:   Roles{Category: "patient_name", Value: "revenue"},
	},
	{
		Name:  VisitsByGender,
		Group: GroupKPI,
		Title: "Visits By Gender",
		SQL: `SELECT p.gender,
       COUNT(f.visit_id) AS visits
FROM hospital_visits_fact f
JOIN patient_dim p ON f.patient_id = p.patient_id
GROUP BY p.gender
ORDER BY p.gender`,
		Columns: []string{"gender", "visits"},
		Roles:   Roles{Category: "gender", Value: "visits"},
	},
	{
		Name:  VisitsByAgeGroup,
		Group: GroupKPI,
		Title: "Visits By Age Group",
		SQL: `SELECT CASE
           WHEN p.age IS NULL THEN 'Unknown'
           WHEN p.age < 18 THEN '0-17'
           WHEN p.age < 35 THEN '18-34'
           WHEN p.age < 50 THEN '35-49'
           WHEN p.age < 65 THEN '50-64'
           ELSE '65+'
       END AS age_group,
       COUNT(f.visit_id) AS visits
FROM hospital_visits_fact f
JOIN patient_dim p ON f.patient_id = p.patient_id
GROUP BY 1
ORDER BY 1`,
		Columns: []string{"age_group", "visits"},
		Roles:   Roles{Category: "age_group", Value: "visits"},
	},

	{
		Name:  PatientDataMart,
		Group: GroupDataMart,
		Title: "Patient Data Mart",
		SQL: `SELECT pd.patient_id, pd.name, pd.age, pd.gender, pd.location, pd.blood_type,
       pd.smoker_status, pd.alcohol_consumption, pd.exercise_frequency,
       COUNT(hvf.visit_id) AS total_visits,
       CAST(AVG(hvf.total_bill) AS FLOAT8) AS avg_bill
FROM patient_dim pd
JOIN hospital_visits_fact hvf ON pd.patient_id = hvf.patient_id
GROUP BY pd.patient_id, pd.name, pd.age, pd.gender, pd.location, pd.blood_type,
         pd.smoker_status, pd.alcohol_consumption, pd.exercise_frequency
ORDER BY pd.patient_id`,
		Columns: []string{
			"patient_id", "name", "age", "gender", "location", "blood_type",
			"smoker_status", "alcohol_consumption", "exercise_frequency", "total_visits", "avg_bill",
		},
	},
	{
		Name:  FinancialDataMart,
		Group: GroupDataMart,
		Title: "Financial Data Mart",
		SQL: `SELECT bd.billing_id, bd.total_bill, bd.insurance_type, bd.claim_status, bd.payment_method,
       hvf.hospital_id,
       CAST(SUM(hvf.total_bill) AS FLOAT8) AS total_revenue_per_hospital
FROM hospital_visits_fact hvf
JOIN billing_dim bd ON hvf.billing_id = bd.billing_id
GROUP BY hvf.hospital_id, bd.billing_id, bd.total_bill, bd.insurance_type, bd.claim_status, bd.payment_method
ORDER BY hvf.hospital_id, bd.billing_id`,
		Columns: []string{
			"billing_id", "total_bill", "insurance_type", "claim_status", "payment_method",
			"hospital_id", "total_revenue_per_hospital",
		},
	},
	{
		Name:  DoctorPerformanceDataMart,
		Group: GroupDataMart,
		Title: "Doctor Data Mart",
		SQL: `SELECT dd.doctor_id, dd.doctor_name, dd.specialization, dd.years_of_experience,
       COUNT(hvf.visit_id) AS total_patients_seen,
       CAST(AVG(hvf.total_bill) AS FLOAT8) AS avg_bill_per_patient
FROM doctor_dim dd
JOIN hospital_visits_fact hvf ON dd.doctor_id = hvf.doctor_id
GROUP BY dd.doctor_id, dd.doctor_name, dd.specialization, dd.years_of_experience
ORDER BY dd.doctor_id`,
		Columns: []string{
			"doctor_id", "doctor_name", "specialization", "years_of_experience",
			"total_patients_seen", "avg_bill_per_patient",
		},
		Roles: Roles{
			Category: "doctor_name", Value: "total_patients_seen", Color: "specialization",
			X: "years_of_experience", Y: "avg_bill_per_patient",
		},
	},
	{
		Name:  DiseaseAnalyticsDataMart,
		Group: GroupDataMart,
		Title: "Disease Data Mart",
		SQL: `SELECT dd.disease_id, dd.disease_name, dd.category, dd.severity_level,
       COUNT(hvf.visit_id) AS total_cases,
       CAST(AVG(hvf.total_bill) AS FLOAT8) AS avg_treatment_cost
FROM disease_dim dd
JOIN hospital_visits_fact hvf ON dd.disease_id = hvf.disease_id
GROUP BY dd.disease_id, dd.disease_name, dd.category, dd.severity_level
ORDER BY dd.disease_id`,
		Columns: []string{
			"disease_id", "disease_name", "category", "severity_level", "total_cases", "avg_treatment_cost",
		},
		Roles: Roles{Category: "disease_name", Value: "total_cases"},
	},
}

// Lookup returns the catalog entry with the given name.
func Lookup(name QueryName) (Query, bool) {
	for _, q := range catalog {
		if q.Name == name {
			return q, true
		}
	}
	return Query{}, false
}

// All returns every catalog entry in declaration order.
func All() []Query {
	out := make([]Query, len(catalog))
	copy(out, catalog)
	return out
}

// ByGroup returns the entries of one group in declaration order.
func ByGroup(g Group) []Query {
	var out []Query
	for _, q := range catalog {
		if q.Group == g {
			out = append(out, q)
		}
	}
	return out
}
