package etl

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// field indexes a canonical raw-extract column.
type field int

const (
	fVisitID field = iota
	fPatientIDX
	fPatientIDY
	fDiseaseID
	fBillingID
	fVisitDate
	fHospitalID
	fDoctorID
	fTotalBillX
	fTotalBillY
	fName
	fAge
	fGender
	fLocation
	fBloodType
	fWeight
	fHeight
	fSmokerStatus
	fAlcoholConsumption
	fExerciseFrequency
	fDiseaseName
	fCategory
	fSeverityLevel
	fDoctorName
	fSpecialization
	fYearsOfExperience
	fHospitalName
	fCity
	fType
	fInsuranceType
	fClaimStatus
	fPaymentMethod
	numFields
)

// rawColumns maps each canonical field to the header names accepted for it,
// in order of preference. Suffixes come from the join that produced the extract.
var rawColumns = [numFields][]string{
	fVisitID:            {"visit_id"},
	fPatientIDX:         {"patient_id_x"},
	fPatientIDY:         {"patient_id_y"},
	fDiseaseID:          {"disease_id"},
	fBillingID:          {"billing_id"},
	fVisitDate:          {"visit_date"},
	fHospitalID:         {"hospital_id"},
	fDoctorID:           {"doctor_id"},
	fTotalBillX:         {"total_bill_x"},
	fTotalBillY:         {"total_bill_y"},
	fName:               {"name"},
	fAge:                {"age"},
	fGender:             {"gender"},
	fLocation:           {"location"},
	fBloodType:          {"blood_type"},
	fWeight:             {"weight"},
	fHeight:             {"height"},
	fSmokerStatus:       {"smoker_status"},
	fAlcoholConsumption: {"alcohol_consumption"},
	fExerciseFrequency:  {"exercise_frequency"},
	fDiseaseName:        {"disease_name"},
	fCategory:           {"category"},
	fSeverityLevel:      {"severity_level"},
	fDoctorName:         {"doctor_name"},
	fSpecialization:     {"specialization"},
	fYearsOfExperience:  {"years_of_experience"},
	fHospitalName:       {"hospital_name"},
	fCity:               {"city"},
	fType:               {"type"},
	fInsuranceType:      {"insurance_type_y", "insurance_type"},
	fClaimStatus:        {"claim_status_y", "claim_status"},
	fPaymentMethod:      {"payment_method"},
}

func (f field) String() string { return rawColumns[f][0] }

// missingMarkers are cell values read as missing, matching common CSV exports.
var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "<na>": true,
}

// isMissing reports whether a trimmed cell value denotes a missing value.
func isMissing(s string) bool {
	return missingMarkers[strings.ToLower(s)]
}

// sourceRow is one data row of the raw extract in canonical field order.
// Missing values are stored as "".
type sourceRow struct {
	num    int64 // 1-based data row number
	values [numFields]string
}

func (r *sourceRow) get(f field) string { return r.values[f] }

func (r *sourceRow) key() string {
	return strings.Join(r.values[:], "\x1f")
}

// extractReader streams the denormalized raw extract one row at a time.
type extractReader struct {
	file   *os.File
	csv    *csv.Reader
	rowNum int64
	colIdx [numFields]int
}

// newExtractReader opens path and resolves every required column from its header row.
func newExtractReader(path string) (*extractReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	r := &extractReader{file: file, csv: reader}
	if err := r.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *extractReader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}

	// Lowercase index for case-insensitive lookup. The first occurrence wins
	// when a header name repeats.
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	for f := field(0); f < numFields; f++ {
		r.colIdx[f] = -1
		for _, name := range rawColumns[f] {
			if i, ok := idx[name]; ok {
				r.colIdx[f] = i
				break
			}
		}
		if r.colIdx[f] < 0 {
			return &ColumnError{Column: f.String()}
		}
	}
	return nil
}

// next returns the next data row. Returns nil, io.EOF when done.
func (r *extractReader) next() (*sourceRow, error) {
	for {
		rec, err := r.csv.Read()
		if err != nil {
			return nil, err
		}
		r.rowNum++

		// Skip empty rows
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}

		row := &sourceRow{num: r.rowNum}
		for f := field(0); f < numFields; f++ {
			row.values[f] = valAt(rec, r.colIdx[f])
		}
		return row, nil
	}
}

// RowNum returns the number of data rows read so far.
func (r *extractReader) RowNum() int64 {
	return r.rowNum
}

// Close closes the underlying file.
func (r *extractReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// valAt returns the trimmed UTF-8 value at i, or "" when absent or a missing marker.
func valAt(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	s := strings.ToValidUTF8(strings.TrimSpace(rec[i]), "\uFFFD")
	if isMissing(s) {
		return ""
	}
	return s
}

// Extract is a fully read raw extract.
type Extract struct {
	rows []*sourceRow
}

// Len returns the number of data rows.
func (e *Extract) Len() int { return len(e.rows) }

// ReadExtract reads the whole raw extract at path.
func ReadExtract(path string) (*Extract, error) {
	r, err := newExtractReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ex := &Extract{}
	for {
		row, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read raw extract row %d: %w", r.RowNum(), err)
		}
		ex.rows = append(ex.rows, row)
	}
	return ex, nil
}
