package xlcalc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/efp"
	"github.com/xuri/excelize/v2"
)

// styleKey is the set of font flags a cell can carry.
type styleKey struct {
	bold, italic, underline bool
}

func (k styleKey) empty() bool { return !k.bold && !k.italic && !k.underline }

// xlsxWriter copies sheets into an excelize workbook.
type xlsxWriter struct {
	file       *excelize.File
	styleCache map[styleKey]int // font flags → style id
	formulas   bool
}

// WriteXLSX writes every sheet as a worksheet holding the cells' displays,
// with bold, italic and underline fonts. Titles are sanitized and made
// unique as Excel requires.
func (ss *Spreadsheet) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	xw := &xlsxWriter{
		file:       f,
		styleCache: make(map[styleKey]int),
		formulas:   ss.base.formulas,
	}
	used := make(map[string]bool)
	for i, sheet := range ss.sheets {
		name := uniqueSheetName(SafeSheetName(sheet.Title()), used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := xw.writeSheet(name, sheet); err != nil {
			return fmt.Errorf("write sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func (xw *xlsxWriter) writeSheet(name string, sheet *Sheet) error {
	for r, row := range sheet.grid {
		for c, cell := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := xw.writeCell(name, axis, cell); err != nil {
				return fmt.Errorf("cell %s: %w", axis, err)
			}
		}
	}
	return nil
}

func (xw *xlsxWriter) writeCell(name, axis string, cell *Cell) error {
	if d := cell.Display(); d != "" {
		var value any = d
		if k := cell.Kind(); k != KindString && k != KindError {
			if v, ok := parseNumeric(d); ok {
				value = v
			}
		}
		if err := xw.file.SetCellValue(name, axis, value); err != nil {
			return err
		}
	}
	if xw.formulas {
		if formula, ok := excelFormula(cell.Value()); ok {
			if err := xw.file.SetCellFormula(name, axis, formula); err != nil {
				return err
			}
		}
	}

	key := styleKey{bold: cell.Bold(), italic: cell.Italic(), underline: cell.Underline()}
	if key.empty() {
		return nil
	}
	styleID, err := xw.style(key)
	if err != nil {
		return err
	}
	return xw.file.SetCellStyle(name, axis, axis, styleID)
}

func (xw *xlsxWriter) style(key styleKey) (int, error) {
	if id, ok := xw.styleCache[key]; ok {
		return id, nil
	}
	font := &excelize.Font{Bold: key.bold, Italic: key.italic}
	if key.underline {
		font.Underline = "single"
	}
	id, err := xw.file.NewStyle(&excelize.Style{Font: font})
	if err != nil {
		return 0, fmt.Errorf("new style: %w", err)
	}
	xw.styleCache[key] = id
	return id, nil
}

// uniqueSheetName appends " (n)" until name is unused, comparing
// case-insensitively like Excel does.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		base := []rune(name)
		if len(base)+len(suffix) > 31 {
			base = base[:31-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// excelFormula renders a reference, range or arithmetic formula in Excel
// syntax. Text formulas have no faithful Excel form and are skipped.
func excelFormula(e Expression) (string, bool) {
	switch v := e.(type) {
	case ReferenceExpr:
		return v.target.Position().String(), true
	case RangeExpr:
		if v.code != "" || len(v.cells) == 0 {
			return "", false
		}
		return excelAggregate(v), true
	case FunctionExpr:
		if v.resolved {
			return "", false
		}
		var b strings.Builder
		for _, t := range v.terms {
			switch t.tok.kind {
			case tokenCell, tokenRef:
				b.WriteString(t.cell.Position().String())
			case tokenRange:
				if t.rng.code != "" || len(t.rng.cells) == 0 {
					return "", false
				}
				b.WriteString(excelAggregate(*t.rng))
			case tokenNumber, tokenOperator, tokenLParen, tokenRParen:
				b.WriteString(t.tok.text)
			default:
				return "", false
			}
		}
		return b.String(), true
	}
	return "", false
}

func excelAggregate(r RangeExpr) string {
	name := "SUM"
	if r.op == OpAvg {
		name = "AVERAGE"
	}
	first, last := r.Bounds()
	return name + "(" + first.String() + ":" + last.String() + ")"
}

// ImportXLSX reads every worksheet of an XLSX workbook into a new
// spreadsheet. Formulas are translated with TranslateFormula; formulas with
// no equivalent keep their cached value. Sheets larger than the configured
// bounds are truncated.
func ImportXLSX(r io.Reader, opts ...Option) (*Spreadsheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	ss := newSpreadsheet(opts)
	for _, name := range f.GetSheetList() {
		if err := ss.importSheet(f, name); err != nil {
			return nil, fmt.Errorf("import sheet %q: %w", name, err)
		}
	}
	if len(ss.sheets) == 0 {
		if _, err := ss.CreateSheet(); err != nil {
			return nil, err
		}
	}
	return ss, nil
}

func (ss *Spreadsheet) importSheet(f *excelize.File, name string) error {
	rows, err := f.GetRows(name)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	nRows := min(max(len(rows), 1), ss.base.maxRows)
	nCols := min(max(cols, 1), ss.base.maxCols)
	if len(rows) > nRows || cols > nCols {
		ss.base.logger.Printf("xlsx sheet %q: truncated %dx%d to %dx%d", name, len(rows), cols, nRows, nCols)
	}

	sheet, err := ss.CreateSheet(WithTitle(name), WithSize(max(nRows, ss.base.rows), max(nCols, ss.base.cols)))
	if err != nil {
		return err
	}

	styles := make(map[int]styleKey)
	for r := 0; r < nRows && r < len(rows); r++ {
		for c := 0; c < nCols && c < len(rows[r]); c++ {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			raw := rows[r][c]
			if formula, err := f.GetCellFormula(name, axis); err == nil && formula != "" {
				if translated, ok := TranslateFormula(formula); ok {
					raw = translated
				} else {
					ss.base.logger.Printf("xlsx sheet %q: %s: formula %q kept as value", name, axis, formula)
				}
			}
			if raw != "" {
				if err := sheet.SetCellValue(Position{Row: r, Col: c}, raw); err != nil {
					return err
				}
			}
			key := readStyle(f, name, axis, styles)
			cell := sheet.grid[r][c]
			cell.SetBold(key.bold)
			cell.SetItalic(key.italic)
			cell.SetUnderline(key.underline)
		}
	}
	return nil
}

func readStyle(f *excelize.File, sheet, axis string, cache map[int]styleKey) styleKey {
	id, err := f.GetCellStyle(sheet, axis)
	if err != nil || id == 0 {
		return styleKey{}
	}
	if key, ok := cache[id]; ok {
		return key
	}
	var key styleKey
	if st, err := f.GetStyle(id); err == nil && st.Font != nil {
		key = styleKey{bold: st.Font.Bold, italic: st.Font.Italic, underline: st.Font.Underline != ""}
	}
	cache[id] = key
	return key
}

// TranslateFormula converts an Excel formula into cell input:
// A1 → =REF(A1), SUM(A1:A3) → =SUM(A1..A3), AVERAGE(B1:D1) → =AVG(B1..D1),
// and arithmetic such as A1*2+SUM(B1:B3) → =(REF(A1) * 2 + SUM(B1..B3)).
// The & operator becomes +. Formulas using other functions, sheet
// references, comparisons or 2-D areas are not translated.
func TranslateFormula(formula string) (string, bool) {
	formula = strings.TrimPrefix(strings.TrimSpace(formula), "=")
	if formula == "" {
		return "", false
	}
	ps := efp.ExcelParser()
	tokens := ps.Parse(formula)
	if len(tokens) == 0 {
		return "", false
	}

	if len(tokens) == 1 && tokens[0].TType == efp.TokenTypeOperand && tokens[0].TSubType == efp.TokenSubTypeRange {
		if cell, ok := cellOperand(tokens[0].TValue); ok {
			return "=REF(" + cell + ")", true
		}
		return "", false
	}
	if agg, n, ok := aggregateCall(tokens); ok && n == len(tokens) {
		return "=" + agg, true
	}

	var b strings.Builder
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.TType {
		case efp.TokenTypeOperand:
			switch t.TSubType {
			case efp.TokenSubTypeNumber:
				b.WriteString(t.TValue)
			case efp.TokenSubTypeText:
				if strings.Contains(t.TValue, `"`) {
					return "", false
				}
				b.WriteString(`"` + t.TValue + `"`)
			case efp.TokenSubTypeRange:
				cell, ok := cellOperand(t.TValue)
				if !ok {
					return "", false
				}
				b.WriteString("REF(" + cell + ")")
			default:
				return "", false
			}
		case efp.TokenTypeFunction:
			agg, n, ok := aggregateCall(tokens[i:])
			if !ok {
				return "", false
			}
			b.WriteString(agg)
			i += n - 1
		case efp.TokenTypeSubexpression:
			if t.TSubType == efp.TokenSubTypeStart {
				b.WriteByte('(')
			} else {
				b.WriteByte(')')
			}
		case efp.TokenTypeOperatorInfix:
			switch t.TValue {
			case "+", "-", "*", "/", "^":
				b.WriteString(" " + t.TValue + " ")
			case "&":
				b.WriteString(" + ")
			default:
				return "", false
			}
		case efp.TokenTypeOperatorPrefix:
			if t.TValue != "-" {
				return "", false
			}
			b.WriteByte('-')
		case efp.TokenTypeWhitespace:
		default:
			return "", false
		}
	}
	return "=(" + b.String() + ")", true
}

// aggregateCall matches SUM(A1:A3) or AVERAGE(A1:A3) at the head of tokens,
// returning the translated text and the number of tokens consumed.
func aggregateCall(tokens []efp.Token) (string, int, bool) {
	if len(tokens) < 3 {
		return "", 0, false
	}
	start, arg, stop := tokens[0], tokens[1], tokens[2]
	if start.TType != efp.TokenTypeFunction || start.TSubType != efp.TokenSubTypeStart ||
		arg.TType != efp.TokenTypeOperand || arg.TSubType != efp.TokenSubTypeRange ||
		stop.TType != efp.TokenTypeFunction || stop.TSubType != efp.TokenSubTypeStop {
		return "", 0, false
	}
	var op RangeOp
	switch strings.ToUpper(start.TValue) {
	case "SUM":
		op = OpSum
	case "AVERAGE", "AVG":
		op = OpAvg
	default:
		return "", 0, false
	}
	from, to, ok := strings.Cut(arg.TValue, ":")
	if !ok {
		return "", 0, false
	}
	first, ok1 := cellOperand(from)
	last, ok2 := cellOperand(to)
	if !ok1 || !ok2 {
		return "", 0, false
	}
	return string(op) + "(" + first + ".." + last + ")", 3, true
}

// cellOperand normalizes a single-cell Excel reference such as $b$2.
func cellOperand(v string) (string, bool) {
	v = strings.ToUpper(strings.ReplaceAll(v, "$", ""))
	if !isCellName(v) {
		return "", false
	}
	return v, true
}
