// =============================================================================
// Clinic Template Migrator - Output Validation
// =============================================================================
//
// Checks that a written template file is something the destination importer
// will accept. Validation is limited to structure:
//   - the file starts with a UTF-8 byte order mark
//   - the header record equals the expected column list, in order
//   - every data record has exactly as many fields as the header
//   - header names are unique (warning only)
//
// Cell contents are never inspected.
//
// ERROR HANDLING:
//   - Problems are collected, not returned one at a time
//   - Each entry carries the file, record number and rule that failed
//   - Warnings do not make a result invalid
//
// =============================================================================

package validation

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleBOM             = "bom"
	RuleHeaderMatch     = "header_match"
	RuleRowArity        = "row_arity"
	RuleDuplicateHeader = "duplicate_header"
	RuleMalformed       = "malformed"
)

// ValidationError represents a single validation problem.
type ValidationError struct {
	Severity string
	File     string

	// Record is the 1-based CSV record number (1 is the header).
	Record int

	Rule    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("[%s] %s record %d: %s", strings.ToUpper(e.Severity), e.File, e.Record, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.File, e.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the outcome of validating one file.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// RowsValidated counts data records, excluding the header.
	RowsValidated int
}

func (r *ValidationResult) add(e *ValidationError) {
	r.Errors = append(r.Errors, e)
	if e.Severity == SeverityWarning {
		r.WarningCount++
		return
	}
	r.ErrorCount++
	r.IsValid = false
}

// Err folds the result into a single error, or nil when it is valid.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	var errs []error
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions tunes a validation run.
type ValidationOptions struct {
	// MaxErrors stops collecting row errors after this many. Zero means 20.
	MaxErrors int
}

// ValidateFile checks the file at path against the expected header.
// A nil expected header skips the header comparison.
//
// RETURNS:
//   - The collected result.
//   - An error only if the file cannot be opened.
func ValidateFile(path string, expected []string, opts ValidationOptions) (*ValidationResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return Validate(file, path, expected, opts), nil
}

// Validate checks CSV content read from r. name labels the findings.
func Validate(r io.Reader, name string, expected []string, opts ValidationOptions) *ValidationResult {
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 20
	}
	result := &ValidationResult{IsValid: true}

	buffered := bufio.NewReader(r)
	lead, _ := buffered.Peek(3)
	if bytes.Equal(lead, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buffered.Discard(3)
	} else {
		result.add(&ValidationError{Severity: SeverityError, File: name, Rule: RuleBOM, Message: "missing UTF-8 byte order mark"})
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.add(&ValidationError{Severity: SeverityError, File: name, Record: 1, Rule: RuleMalformed, Message: fmt.Sprintf("cannot read header: %v", err)})
		return result
	}

	for _, e := range ValidateHeaders(header) {
		e.File = name
		result.add(e)
	}
	if expected != nil {
		if msg := compareHeaders(expected, header); msg != "" {
			result.add(&ValidationError{Severity: SeverityError, File: name, Record: 1, Rule: RuleHeaderMatch, Message: msg})
		}
	}

	rowErrors := 0
	for recordNo := 2; ; recordNo++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.add(&ValidationError{Severity: SeverityError, File: name, Record: recordNo, Rule: RuleMalformed, Message: err.Error()})
			break
		}
		result.RowsValidated++
		if len(record) != len(header) && rowErrors < opts.MaxErrors {
			rowErrors++
			result.add(&ValidationError{
				Severity: SeverityError,
				File:     name,
				Record:   recordNo,
				Rule:     RuleRowArity,
				Message:  fmt.Sprintf("has %d fields, header has %d", len(record), len(header)),
			})
		}
	}

	return result
}

// ValidateHeaders reports duplicate column names as warnings.
func ValidateHeaders(headers []string) []*ValidationError {
	var out []*ValidationError
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if seen[h] {
			out = append(out, &ValidationError{
				Severity: SeverityWarning,
				Record:   1,
				Rule:     RuleDuplicateHeader,
				Message:  fmt.Sprintf("column %q appears more than once", h),
			})
		}
		seen[h] = true
	}
	return out
}

// compareHeaders describes the first difference between two headers, or
// returns "" when they are equal.
func compareHeaders(expected, actual []string) string {
	for i := 0; i < len(expected) && i < len(actual); i++ {
		if expected[i] != actual[i] {
			return fmt.Sprintf("column %d is %q, expected %q", i+1, actual[i], expected[i])
		}
	}
	if len(expected) != len(actual) {
		return fmt.Sprintf("header has %d columns, expected %d", len(actual), len(expected))
	}
	return ""
}
