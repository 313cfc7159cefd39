package xlcalc

import (
	"errors"
	"fmt"
)

// Error codes shown as a cell's display when evaluation fails.
const (
	CodeError        = "#ERROR!"      // malformed formula or rejected reference
	CodeDivZero      = "#DIV/0!"      // division by zero
	CodeInvalidRange = "#INVLREXPR!"  // range over non-numeric cells or an invalid window
	CodeValue        = "#VALUE!"      // evaluator runtime failure
	CodeName         = "#NAME?"       // unknown function or string arithmetic
	CodeOutOfRange   = "#OUTOFRANGE!" // cell requested outside the grid
	CodeRangeShape   = "#RANGEXPR!"   // range that is not a single row or column
)

var errorCodes = map[string]bool{
	CodeError:        true,
	CodeDivZero:      true,
	CodeInvalidRange: true,
	CodeValue:        true,
	CodeName:         true,
	CodeOutOfRange:   true,
	CodeRangeShape:   true,
}

// IsErrorCode reports whether s is one of the recognized error codes.
func IsErrorCode(s string) bool {
	return errorCodes[s]
}

// ErrorCodes returns the recognized error codes.
func ErrorCodes() []string {
	return []string{CodeError, CodeDivZero, CodeInvalidRange, CodeValue, CodeName, CodeOutOfRange, CodeRangeShape}
}

// Structural errors returned by Sheet and Spreadsheet.
var (
	ErrRowOutOfRange      = errors.New("Row index out of range")
	ErrColumnOutOfRange   = errors.New("Column index out of range")
	ErrLastSheet          = errors.New("Spreadsheet must have at least one sheet")
	ErrSheetNotFound      = errors.New("sheet not found")
	ErrSheetFull          = errors.New("sheet is at its maximum size")
	ErrLastLine           = errors.New("cannot delete the last row or column")
	ErrInvalidSize        = errors.New("invalid sheet size")
	ErrPositionOutOfRange = errors.New("position outside the sheet")
)

// SheetNotFoundError reports a sheet id that does not exist in a Spreadsheet.
// It matches ErrSheetNotFound with errors.Is.
type SheetNotFoundError struct {
	ID     int
	Export bool // set when the lookup came from an export
}

func (e *SheetNotFoundError) Error() string {
	if e.Export {
		return fmt.Sprintf("Sheet with the id: %d cannot be exported because it does not exist on the spreadsheet!", e.ID)
	}
	return fmt.Sprintf("Sheet %d does not exist in spreadsheet!", e.ID)
}

func (e *SheetNotFoundError) Unwrap() error { return ErrSheetNotFound }

func indexError(isRow bool) error {
	if isRow {
		return ErrRowOutOfRange
	}
	return ErrColumnOutOfRange
}
