package risk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RequiredColumns are the dataset columns training needs. Other columns are ignored.
var RequiredColumns = DefaultFeatures

// ReadDataset parses delimited training rows with a header line. The UCI
// bank-marketing export uses ';' and quoted fields.
func ReadDataset(r io.Reader, sep rune) ([]Member, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ValidationErrors{{Field: "header", Message: "Dataset is empty"}}
		}
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing ValidationErrors
	for _, name := range RequiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, ValidationError{Field: "header", Message: fmt.Sprintf("Missing required column %q", name)})
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}

	var (
		rows []Member
		errs ValidationErrors
		line = 1
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset line %d: %w", line, err)
		}

		m, rowErrs := parseRow(rec, col, line)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		rows = append(rows, m)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rows, nil
}

// LoadDatasetFile reads a dataset from disk
func LoadDatasetFile(path string, sep rune) ([]Member, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return ReadDataset(f, sep)
}

func parseRow(rec []string, col map[string]int, line int) (Member, ValidationErrors) {
	var errs ValidationErrors
	field := func(name string) string {
		i := col[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	fail := func(name, msg string) {
		errs = append(errs, ValidationError{Field: fmt.Sprintf("line %d: %s", line, name), Message: msg})
	}

	var m Member

	age, err := strconv.Atoi(field(FeatureAge))
	if err != nil {
		fail(FeatureAge, fmt.Sprintf("Invalid age %q", field(FeatureAge)))
	}
	m.Age = age

	balance, err := decimal.NewFromString(field(FeatureBalance))
	if err != nil {
		fail(FeatureBalance, fmt.Sprintf("Invalid balance %q", field(FeatureBalance)))
	}
	m.Balance = balance

	if m.HasHousingLoan, err = parseYesNo(field(FeatureHousing)); err != nil {
		fail(FeatureHousing, err.Error())
	}
	if m.HasPersonalLoan, err = parseYesNo(field(FeatureLoan)); err != nil {
		fail(FeatureLoan, err.Error())
	}

	m.Job = field(FeatureJob)
	m.Marital = field(FeatureMarital)
	m.Education = field(FeatureEducation)

	return m.Normalized(), errs
}

// parseYesNo normalizes the textual debt flags
func parseYesNo(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected yes or no, got %q", v)
}
