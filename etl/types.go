package etl

import "strconv"

// Warehouse table names.
const (
	FactTable     = "hospital_visits_fact"
	PatientTable  = "patient_dim"
	DiseaseTable  = "disease_dim"
	DoctorTable   = "doctor_dim"
	HospitalTable = "hospital_dim"
	BillingTable  = "billing_dim"
)

// Column describes one warehouse column.
type Column struct {
	Name string
	Type string // portable SQL type
}

// TableDef describes one star-schema table. Columns are in artifact order.
type TableDef struct {
	Name        string
	Key         string
	Fact        bool
	Description string
	Columns     []Column
}

// ColumnNames returns the table's column names in order.
func (t TableDef) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Tables lists the star schema, fact first.
var Tables = []TableDef{
	{
		Name: FactTable, Key: "visit_id", Fact: true,
		Description: "One row per hospital visit, referencing every dimension by key",
		Columns: []Column{
			{"visit_id", "INTEGER"}, {"patient_id", "INTEGER"}, {"disease_id", "INTEGER"},
			{"billing_id", "INTEGER"}, {"visit_date", "DATE"}, {"hospital_id", "INTEGER"},
			{"doctor_id", "INTEGER"}, {"total_bill", "FLOAT8"},
		},
	},
	{
		Name: PatientTable, Key: "patient_id",
		Description: "One row per unique patient",
		Columns: []Column{
			{"patient_id", "INTEGER"}, {"name", "TEXT"}, {"age", "INTEGER"}, {"gender", "TEXT"},
			{"location", "TEXT"}, {"blood_type", "TEXT"}, {"weight", "FLOAT8"},
			{"height", "FLOAT8"}, {"smoker_status", "TEXT"},
			{"alcohol_consumption", "TEXT"}, {"exercise_frequency", "TEXT"},
		},
	},
	{
		Name: DiseaseTable, Key: "disease_id",
		Description: "One row per unique disease",
		Columns: []Column{
			{"disease_id", "INTEGER"}, {"disease_name", "TEXT"}, {"category", "TEXT"},
			{"severity_level", "TEXT"},
		},
	},
	{
		Name: DoctorTable, Key: "doctor_id",
		Description: "One row per unique doctor",
		Columns: []Column{
			{"doctor_id", "INTEGER"}, {"doctor_name", "TEXT"}, {"specialization", "TEXT"},
			{"years_of_experience", "INTEGER"},
		},
	},
	{
		Name: HospitalTable, Key: "hospital_id",
		Description: "One row per unique hospital",
		Columns: []Column{
			{"hospital_id", "INTEGER"}, {"hospital_name", "TEXT"}, {"city", "TEXT"}, {"type", "TEXT"},
		},
	},
	{
		Name: BillingTable, Key: "billing_id",
		Description: "One row per unique billing record",
		Columns: []Column{
			{"billing_id", "INTEGER"}, {"total_bill", "FLOAT8"}, {"insurance_type", "TEXT"},
			{"claim_status", "TEXT"}, {"payment_method", "TEXT"},
		},
	},
}

// LookupTable returns the definition of the named table.
func LookupTable(name string) (TableDef, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDef{}, false
}

// VisitFact is one row of hospital_visits_fact.
type VisitFact struct {
	VisitID    int64    `parquet:"visit_id"`
	PatientID  int64    `parquet:"patient_id"`
	DiseaseID  int64    `parquet:"disease_id"`
	BillingID  int64    `parquet:"billing_id"`
	VisitDate  *string  `parquet:"visit_date,optional"` // YYYY-MM-DD
	HospitalID int64    `parquet:"hospital_id"`
	DoctorID   int64    `parquet:"doctor_id"`
	TotalBill  *float64 `parquet:"total_bill,optional"`
}

func (r VisitFact) record() []string {
	return []string{
		itoa(r.VisitID), itoa(r.PatientID), itoa(r.DiseaseID), itoa(r.BillingID),
		optString(r.VisitDate), itoa(r.HospitalID), itoa(r.DoctorID), optFloatString(r.TotalBill),
	}
}

// Patient is one row of patient_dim.
type Patient struct {
	PatientID          int64    `parquet:"patient_id"`
	Name               string   `parquet:"name"`
	Age                *int64   `parquet:"age,optional"`
	Gender             string   `parquet:"gender"`
	Location           string   `parquet:"location"`
	BloodType          string   `parquet:"blood_type"`
	Weight             *float64 `parquet:"weight,optional"`
	Height             *float64 `parquet:"height,optional"`
	SmokerStatus       string   `parquet:"smoker_status"`
	AlcoholConsumption string   `parquet:"alcohol_consumption"`
	ExerciseFrequency  string   `parquet:"exercise_frequency"`
}

func (r Patient) record() []string {
	return []string{
		itoa(r.PatientID), r.Name, optIntString(r.Age), r.Gender, r.Location, r.BloodType,
		optFloatString(r.Weight), optFloatString(r.Height), r.SmokerStatus,
		r.AlcoholConsumption, r.ExerciseFrequency,
	}
}

// Disease is one row of disease_dim.
type Disease struct {
	DiseaseID     int64  `parquet:"disease_id"`
	DiseaseName   string `parquet:"disease_name"`
	Category      string `parquet:"category"`
	SeverityLevel string `parquet:"severity_level"`
}

func (r Disease) record() []string {
	return []string{itoa(r.DiseaseID), r.DiseaseName, r.Category, r.SeverityLevel}
}

// Doctor is one row of doctor_dim.
type Doctor struct {
	DoctorID          int64  `parquet:"doctor_id"`
	DoctorName        string `parquet:"doctor_name"`
	Specialization    string `parquet:"specialization"`
	YearsOfExperience *int64 `parquet:"years_of_experience,optional"`
}

func (r Doctor) record() []string {
	return []string{itoa(r.DoctorID), r.DoctorName, r.Specialization, optIntString(r.YearsOfExperience)}
}

// Hospital is one row of hospital_dim.
type Hospital struct {
	HospitalID   int64  `parquet:"hospital_id"`
	HospitalName string `parquet:"hospital_name"`
	City         string `parquet:"city"`
	Type         string `parquet:"type"`
}

func (r Hospital) record() []string {
	return []string{itoa(r.HospitalID), r.HospitalName, r.City, r.Type}
}

// Billing is one row of billing_dim.
type Billing struct {
	BillingID     int64    `parquet:"billing_id"`
	TotalBill     *float64 `parquet:"total_bill,optional"`
	InsuranceType string   `parquet:"insurance_type"`
	ClaimStatus   string   `parquet:"claim_status"`
	PaymentMethod string   `parquet:"payment_method"`
}

func (r Billing) record() []string {
	return []string{itoa(r.BillingID), optFloatString(r.TotalBill), r.InsuranceType, r.ClaimStatus, r.PaymentMethod}
}

// StarSchema holds the six tables produced by Build.
type StarSchema struct {
	Visits    []VisitFact
	Patients  []Patient
	Diseases  []Disease
	Doctors   []Doctor
	Hospitals []Hospital
	Billings  []Billing
}

// RowCounts returns the number of rows per table name.
func (s *StarSchema) RowCounts() map[string]int {
	return map[string]int{
		FactTable:     len(s.Visits),
		PatientTable:  len(s.Patients),
		DiseaseTable:  len(s.Diseases),
		DoctorTable:   len(s.Doctors),
		HospitalTable: len(s.Hospitals),
		BillingTable:  len(s.Billings),
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optIntString(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optFloatString(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
