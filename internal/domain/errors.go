package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the semantic meaning of a resolved column
type Role string

const (
	RoleSubID        Role = "SubIdentifier"
	RoleParentID     Role = "ParentIdentifier"
	RoleLocation     Role = "Location"
	RoleQuantity     Role = "Quantity"
	RoleZone         Role = "Zone"
	RolePlanQuantity Role = "PlanQuantity"
	RoleTag          Role = "PartitionTag"
)

// ErrUnsupportedFormat is returned for uploads that are not CSV, XLSX or XLS.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SchemaNotFoundError means no header row carrying the marker was found in the scan window
type SchemaNotFoundError struct {
	Marker  string
	Scanned [][]string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("header row not found: none of the first %d rows contains a %q cell", len(e.Scanned), e.Marker)
}

// MissingRequiredColumnError means a required role matched no column
type MissingRequiredColumnError struct {
	Role    Role
	Columns []string
}

func (e *MissingRequiredColumnError) Error() string {
	return fmt.Sprintf("missing required column %s, detected columns: [%s]", e.Role, strings.Join(e.Columns, ", "))
}

// NoTargetInventoryError means no inventory row belongs to a target warehouse
type NoTargetInventoryError struct {
	Candidates int
	Targets    []string
}

func (e *NoTargetInventoryError) Error() string {
	return fmt.Sprintf("no inventory left after warehouse filter %v (%d candidate rows before filtering)", e.Targets, e.Candidates)
}

// DecodeFailureError means every attempted text encoding failed
type DecodeFailureError struct {
	Name      string
	Encodings []string
	Err       error
}

func (e *DecodeFailureError) Error() string {
	return fmt.Sprintf("failed to decode %s with encodings %v: %v", e.Name, e.Encodings, e.Err)
}

func (e *DecodeFailureError) Unwrap() error {
	return e.Err
}

// UnreadableFileError means a workbook could not be opened or has no readable sheet
type UnreadableFileError struct {
	Name   string
	Format string
	Err    error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("cannot read %s as %s: %v", e.Name, e.Format, e.Err)
}

func (e *UnreadableFileError) Unwrap() error {
	return e.Err
}

// ErrorKind maps terminal run errors to a stable machine readable kind.
func ErrorKind(err error) string {
	var (
		schemaErr  *SchemaNotFoundError
		missingErr *MissingRequiredColumnError
		targetErr  *NoTargetInventoryError
		decodeErr  *DecodeFailureError
		readErr    *UnreadableFileError
	)
	switch {
	case errors.As(err, &schemaErr):
		return "schema_not_found"
	case errors.As(err, &missingErr):
		return "missing_required_column"
	case errors.As(err, &targetErr):
		return "no_target_inventory"
	case errors.As(err, &decodeErr):
		return "decode_failure"
	case errors.As(err, &readErr):
		return "unreadable_file"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return ""
	}
}

// ErrorDetails returns the diagnostic payload attached to a terminal run error.
func ErrorDetails(err error) map[string]interface{} {
	var (
		schemaErr  *SchemaNotFoundError
		missingErr *MissingRequiredColumnError
		targetErr  *NoTargetInventoryError
		decodeErr  *DecodeFailureError
		readErr    *UnreadableFileError
	)
	switch {
	case errors.As(err, &schemaErr):
		return map[string]interface{}{"marker": schemaErr.Marker, "scanned_rows": schemaErr.Scanned}
	case errors.As(err, &missingErr):
		return map[string]interface{}{"role": missingErr.Role, "columns": missingErr.Columns}
	case errors.As(err, &targetErr):
		return map[string]interface{}{"candidates": targetErr.Candidates, "targets": targetErr.Targets}
	case errors.As(err, &decodeErr):
		return map[string]interface{}{"file": decodeErr.Name, "encodings": decodeErr.Encodings}
	case errors.As(err, &readErr):
		return map[string]interface{}{"file": readErr.Name, "format": readErr.Format, "cause": readErr.Err.Error()}
	default:
		return nil
	}
}
