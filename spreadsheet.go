package xlcalc

import (
	"fmt"
	"slices"
	"strconv"
)

// Spreadsheet is an ordered, never empty, list of sheets.
type Spreadsheet struct {
	sheets  []*Sheet
	counter int
	opts    []Option
	base    *Options
}

// New creates a spreadsheet holding one sheet titled "0". Options apply to
// every sheet the spreadsheet creates.
func New(opts ...Option) (*Spreadsheet, error) {
	ss := newSpreadsheet(opts)
	if _, err := ss.CreateSheet(); err != nil {
		return nil, err
	}
	return ss, nil
}

func newSpreadsheet(opts []Option) *Spreadsheet {
	base := buildOptions(opts)
	// share one evaluator, and its compile cache, across sheets
	shared := append(slices.Clone(opts), WithEvaluator(base.evaluator))
	return &Spreadsheet{opts: shared, base: base}
}

// CreateSheet appends a sheet titled with the next counter value ("1", "2", …)
// unless WithTitle is given. WithSize sets its dimensions.
func (ss *Spreadsheet) CreateSheet(opts ...Option) (*Sheet, error) {
	o := buildOptions(append(slices.Clone(ss.opts), opts...))
	if o.title == "" {
		o.title = strconv.Itoa(ss.counter)
	}
	sheet, err := newSheet(o)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	ss.counter++
	ss.sheets = append(ss.sheets, sheet)
	return sheet, nil
}

// DeleteSheet removes the sheet at index id.
func (ss *Spreadsheet) DeleteSheet(id int) error {
	if len(ss.sheets) <= 1 {
		return ErrLastSheet
	}
	if id < 0 || id >= len(ss.sheets) {
		return &SheetNotFoundError{ID: id}
	}
	ss.sheets = slices.Delete(ss.sheets, id, id+1)
	return nil
}

// Sheet returns the sheet at index id.
func (ss *Spreadsheet) Sheet(id int) (*Sheet, error) {
	if id < 0 || id >= len(ss.sheets) {
		return nil, &SheetNotFoundError{ID: id}
	}
	return ss.sheets[id], nil
}

// Sheets returns the sheets in order.
func (ss *Spreadsheet) Sheets() []*Sheet {
	return slices.Clone(ss.sheets)
}

// Len returns the number of sheets.
func (ss *Spreadsheet) Len() int { return len(ss.sheets) }

// ExportSheet renders the raw values of the sheet at index id as CSV,
// in the configured encoding.
func (ss *Spreadsheet) ExportSheet(id int) ([]byte, error) {
	if id < 0 || id >= len(ss.sheets) {
		return nil, &SheetNotFoundError{ID: id, Export: true}
	}
	return ss.sheets[id].CSV(ss.base.encoding)
}
