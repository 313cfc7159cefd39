package xlcalc

import (
	"io"
	"log"

	"golang.org/x/text/encoding"
)

// Default grid dimensions.
const (
	DefaultRows    = 10
	DefaultColumns = 10
	MaxRows        = 150
	MaxColumns     = 26
)

// CycleCheck selects how circular references are detected on assignment.
type CycleCheck int

const (
	// CycleCheckFull rejects any dependency that can reach the target cell.
	CycleCheckFull CycleCheck = iota
	// CycleCheckOneHop rejects self references and dependencies that observe
	// the target directly. Longer cycles are cut at recompute time.
	CycleCheckOneHop
)

// Options holds configuration for a Spreadsheet and its sheets.
type Options struct {
	title      string
	rows       int
	cols       int
	maxRows    int
	maxCols    int
	evaluator  Evaluator
	cycleCheck CycleCheck
	logger     *log.Logger
	listeners  []CellListener
	encoding   encoding.Encoding
	formulas   bool
}

func defaultOptions() *Options {
	return &Options{
		rows:    DefaultRows,
		cols:    DefaultColumns,
		maxRows: MaxRows,
		maxCols: MaxColumns,
		logger:  log.New(io.Discard, "", 0),
	}
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.evaluator == nil {
		o.evaluator = NewEvaluator()
	}
	return o
}

// Option configures a Spreadsheet or a Sheet.
type Option func(*Options)

// WithTitle sets the title of a new sheet.
func WithTitle(title string) Option {
	return func(o *Options) { o.title = title }
}

// WithSize sets the initial rows and columns of a new sheet (default: 10x10).
func WithSize(rows, cols int) Option {
	return func(o *Options) {
		o.rows = rows
		o.cols = cols
	}
}

// WithBounds sets the largest size a sheet may have or grow to (default: 150x26).
func WithBounds(maxRows, maxCols int) Option {
	return func(o *Options) {
		o.maxRows = maxRows
		o.maxCols = maxCols
	}
}

// WithEvaluator replaces the expression evaluator used by formulas.
func WithEvaluator(e Evaluator) Option {
	return func(o *Options) { o.evaluator = e }
}

// WithCycleCheck selects the circular reference detection mode (default: CycleCheckFull).
func WithCycleCheck(mode CycleCheck) Option {
	return func(o *Options) { o.cycleCheck = mode }
}

// WithLogger sets the logger receiving diagnostics such as rejected assignments.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithListener adds a listener notified of every recomputed cell.
func WithListener(l CellListener) Option {
	return func(o *Options) { o.listeners = append(o.listeners, l) }
}

// WithCSVEncoding sets the character encoding of exported CSV (default: UTF-8).
func WithCSVEncoding(enc encoding.Encoding) Option {
	return func(o *Options) { o.encoding = enc }
}

// WithXLSXFormulas writes reference, range and arithmetic formulas to XLSX
// as Excel formulas next to their computed values.
func WithXLSXFormulas(enabled bool) Option {
	return func(o *Options) { o.formulas = enabled }
}
