package etl

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// modeFilled are the categorical columns whose missing values take the column mode.
var modeFilled = []field{fSmokerStatus, fAlcoholConsumption, fExerciseFrequency}

// visitDateLayouts are the accepted raw visit_date formats, normalized to YYYY-MM-DD.
var visitDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// Anomaly is a table key that appeared with more than one distinct attribute
// row in the source. The first occurrence is kept.
type Anomaly struct {
	Table    string
	Key      int64
	Variants int     // distinct attribute rows seen for the key
	Rows     []int64 // raw-extract rows carrying the key
}

// Report summarizes one Build run.
type Report struct {
	SourceRows           int
	DuplicateRowsDropped int
	MissingBefore        map[string]int
	MissingAfter         map[string]int
	Filled               map[string]string // column → mode used
	RowCounts            map[string]int
	Anomalies            []Anomaly
}

// AnomaliesFor returns the anomalies recorded for one table.
func (r *Report) AnomaliesFor(table string) []Anomaly {
	var out []Anomaly
	for _, a := range r.Anomalies {
		if a.Table == table {
			out = append(out, a)
		}
	}
	return out
}

// Build derives the star schema from a raw extract. The extract is not modified,
// so building twice from the same extract yields identical tables.
func Build(ex *Extract, log *zap.Logger) (*StarSchema, *Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	rows := make([]*sourceRow, len(ex.rows))
	for i, r := range ex.rows {
		cp := *r
		rows[i] = &cp
	}

	report := &Report{
		SourceRows:    len(rows),
		MissingBefore: missingCounts(rows),
		Filled:        make(map[string]string),
	}

	if err := fillWithMode(rows, report); err != nil {
		return nil, nil, err
	}
	report.MissingAfter = missingCounts(rows)

	rows, report.DuplicateRowsDropped = dropDuplicateRows(rows)

	schema := &StarSchema{}
	var (
		visits    []keyed[VisitFact]
		patients  []keyed[Patient]
		diseases  []keyed[Disease]
		doctors   []keyed[Doctor]
		hospitals []keyed[Hospital]
		billings  []keyed[Billing]
	)

	for _, r := range rows {
		p := rowParser{row: r}

		visit := VisitFact{
			VisitID:    p.id(fVisitID),
			PatientID:  p.id(fPatientIDX),
			DiseaseID:  p.id(fDiseaseID),
			BillingID:  p.id(fBillingID),
			VisitDate:  p.date(fVisitDate),
			HospitalID: p.id(fHospitalID),
			DoctorID:   p.id(fDoctorID),
			TotalBill:  p.optFloat(fTotalBillX),
		}

		patientID := p.id(fPatientIDY)
		patients = append(patients, keyed[Patient]{key: patientID, src: r.num, row: Patient{
			PatientID:          patientID,
			Name:               r.get(fName),
			Age:                p.optInt(fAge),
			Gender:             r.get(fGender),
			Location:           r.get(fLocation),
			BloodType:          r.get(fBloodType),
			Weight:             p.optFloat(fWeight),
			Height:             p.optFloat(fHeight),
			SmokerStatus:       r.get(fSmokerStatus),
			AlcoholConsumption: r.get(fAlcoholConsumption),
			ExerciseFrequency:  r.get(fExerciseFrequency),
		}})
		diseases = append(diseases, keyed[Disease]{key: visit.DiseaseID, src: r.num, row: Disease{
			DiseaseID:     visit.DiseaseID,
			DiseaseName:   r.get(fDiseaseName),
			Category:      r.get(fCategory),
			SeverityLevel: r.get(fSeverityLevel),
		}})
		doctors = append(doctors, keyed[Doctor]{key: visit.DoctorID, src: r.num, row: Doctor{
			DoctorID:          visit.DoctorID,
			DoctorName:        r.get(fDoctorName),
			Specialization:    r.get(fSpecialization),
			YearsOfExperience: p.optInt(fYearsOfExperience),
		}})
		hospitals = append(hospitals, keyed[Hospital]{key: visit.HospitalID, src: r.num, row: Hospital{
			HospitalID:   visit.HospitalID,
			HospitalName: r.get(fHospitalName),
			City:         r.get(fCity),
			Type:         r.get(fType),
		}})
		billings = append(billings, keyed[Billing]{key: visit.BillingID, src: r.num, row: Billing{
			BillingID:     visit.BillingID,
			TotalBill:     p.optFloat(fTotalBillY),
			InsuranceType: r.get(fInsuranceType),
			ClaimStatus:   r.get(fClaimStatus),
			PaymentMethod: r.get(fPaymentMethod),
		}})

		if p.err != nil {
			return nil, nil, p.err
		}
		visits = append(visits, keyed[VisitFact]{key: visit.VisitID, src: r.num, row: visit})
	}

	var anomalies []Anomaly
	schema.Visits, anomalies = dedupe(FactTable, visits, anomalies)
	schema.Patients, anomalies = dedupe(PatientTable, patients, anomalies)
	schema.Diseases, anomalies = dedupe(DiseaseTable, diseases, anomalies)
	schema.Doctors, anomalies = dedupe(DoctorTable, doctors, anomalies)
	schema.Hospitals, anomalies = dedupe(HospitalTable, hospitals, anomalies)
	schema.Billings, anomalies = dedupe(BillingTable, billings, anomalies)

	report.Anomalies = anomalies
	report.RowCounts = schema.RowCounts()

	logReport(log, report)
	return schema, report, nil
}

// fillWithMode replaces missing values of each mode-filled column with the most
// frequent value observed in that column. An all-missing column has no mode and
// is rejected.
func fillWithMode(rows []*sourceRow, report *Report) error {
	if len(rows) == 0 {
		return nil
	}
	for _, f := range modeFilled {
		mode, ok := columnMode(rows, f)
		if !ok {
			return &ValidationError{Column: f.String(), Reason: "every value is missing; no most frequent value to fill with"}
		}
		filled := false
		for _, r := range rows {
			if r.values[f] == "" {
				r.values[f] = mode
				filled = true
			}
		}
		if filled {
			report.Filled[f.String()] = mode
		}
	}
	return nil
}

// columnMode returns the most frequent non-missing value of f. Ties resolve to
// the lexicographically smallest value.
func columnMode(rows []*sourceRow, f field) (string, bool) {
	counts := make(map[string]int)
	for _, r := range rows {
		if v := r.get(f); v != "" {
			counts[v]++
		}
	}
	var best string
	var bestN int
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}

// dropDuplicateRows removes exact duplicate rows, keeping the first occurrence.
func dropDuplicateRows(rows []*sourceRow) ([]*sourceRow, int) {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

func missingCounts(rows []*sourceRow) map[string]int {
	counts := make(map[string]int, numFields)
	for f := field(0); f < numFields; f++ {
		counts[f.String()] = 0
	}
	for _, r := range rows {
		for f := field(0); f < numFields; f++ {
			if r.values[f] == "" {
				counts[f.String()]++
			}
		}
	}
	return counts
}

type record interface {
	record() []string
}

// keyed is a projected table row with its natural key and source row.
type keyed[T record] struct {
	key int64
	src int64
	row T
}

// dedupe keeps the first row per natural key in source order and records an
// anomaly for every key seen with more than one distinct attribute row.
func dedupe[T record](table string, rows []keyed[T], anomalies []Anomaly) ([]T, []Anomaly) {
	type seenKey struct {
		variants map[string]struct{}
		rows     []int64
	}
	var out []T
	seen := make(map[int64]*seenKey)
	var order []int64

	for _, kr := range rows {
		rec := strings.Join(kr.row.record(), "\x1f")
		s, ok := seen[kr.key]
		if !ok {
			s = &seenKey{variants: make(map[string]struct{})}
			seen[kr.key] = s
			order = append(order, kr.key)
			out = append(out, kr.row)
		}
		s.variants[rec] = struct{}{}
		s.rows = append(s.rows, kr.src)
	}

	for _, k := range order {
		s := seen[k]
		if len(s.variants) > 1 {
			anomalies = append(anomalies, Anomaly{Table: table, Key: k, Variants: len(s.variants), Rows: s.rows})
		}
	}
	return out, anomalies
}

func logReport(log *zap.Logger, r *Report) {
	cols := make([]string, 0, len(r.MissingBefore))
	for c, n := range r.MissingBefore {
		if n > 0 {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	for _, c := range cols {
		log.Info("missing values",
			zap.String("column", c),
			zap.Int("before", r.MissingBefore[c]),
			zap.Int("after", r.MissingAfter[c]))
	}
	for c, mode := range r.Filled {
		log.Info("filled missing values with column mode", zap.String("column", c), zap.String("mode", mode))
	}
	if r.DuplicateRowsDropped > 0 {
		log.Info("dropped duplicate source rows", zap.Int("count", r.DuplicateRowsDropped))
	}

	if len(r.AnomaliesFor(PatientTable)) == 0 {
		log.Info("no duplicate patient IDs found")
	}
	for _, a := range r.Anomalies {
		log.Warn("key has conflicting attribute rows; investigate upstream data",
			zap.String("table", a.Table),
			zap.Int64("key", a.Key),
			zap.Int("variants", a.Variants),
			zap.Int64s("rows", a.Rows))
	}
}

// rowParser converts typed columns of one source row, keeping the first error.
type rowParser struct {
	row *sourceRow
	err error
}

func (p *rowParser) fail(f field, reason string) {
	if p.err == nil {
		p.err = &ValidationError{Column: f.String(), Row: p.row.num, Reason: reason}
	}
}

func (p *rowParser) id(f field) int64 {
	v := p.row.get(f)
	if v == "" {
		p.fail(f, "required key is missing")
		return 0
	}
	n, err := parseInt(v)
	if err != nil {
		p.fail(f, "invalid integer key "+strconv.Quote(v))
	}
	return n
}

func (p *rowParser) optInt(f field) *int64 {
	v := p.row.get(f)
	if v == "" {
		return nil
	}
	n, err := parseInt(v)
	if err != nil {
		p.fail(f, "invalid integer "+strconv.Quote(v))
		return nil
	}
	return &n
}

func (p *rowParser) optFloat(f field) *float64 {
	v := p.row.get(f)
	if v == "" {
		return nil
	}
	x := parseFloat(v)
	if x == nil {
		p.fail(f, "invalid number "+strconv.Quote(v))
	}
	return x
}

func (p *rowParser) date(f field) *string {
	v := p.row.get(f)
	if v == "" {
		return nil
	}
	for _, layout := range visitDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			s := t.Format("2006-01-02")
			return &s
		}
	}
	p.fail(f, "unrecognized date "+strconv.Quote(v))
	return nil
}

// parseInt accepts integral values, including float renderings such as "7.0".
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, strconv.ErrSyntax
	}
	return int64(f), nil
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
