package xlcalc

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, ss *Spreadsheet) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ss.WriteXLSX(&buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// --- Export Tests ---

func TestSpreadsheet_WriteXLSX(t *testing.T) {
	ss := newTestSpreadsheet(t, WithSize(3, 3))
	s, err := ss.Sheet(0)
	require.NoError(t, err)
	set(t, s, "A1", "1")
	set(t, s, "A2", "2")
	set(t, s, "A3", "hello")
	set(t, s, "B1", "=SUM(A1..A2)")
	set(t, s, "B2", "=REF(A3)")
	set(t, s, "B3", "=(9/0)")
	cellAt(t, s, "A1").SetBold(true)
	cellAt(t, s, "A2").SetItalic(true)
	_, err = ss.CreateSheet(WithTitle("0"))
	require.NoError(t, err)

	f := writeWorkbook(t, ss)
	assert.Equal(t, []string{"0", "0 (2)"}, f.GetSheetList())

	for axis, want := range map[string]string{
		"A1": "1", "A2": "2", "A3": "hello", "B1": "3", "B2": "hello", "B3": CodeDivZero, "C3": "",
	} {
		got, err := f.GetCellValue("0", axis)
		require.NoError(t, err)
		assert.Equal(t, want, got, axis)
	}

	formula, err := f.GetCellFormula("0", "B1")
	require.NoError(t, err)
	assert.Empty(t, formula)

	styleID, err := f.GetCellStyle("0", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.False(t, style.Font.Italic)

	styleID, err = f.GetCellStyle("0", "A2")
	require.NoError(t, err)
	style, err = f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Italic)
}

func TestSpreadsheet_WriteXLSXFormulas(t *testing.T) {
	ss := newTestSpreadsheet(t, WithSize(3, 3), WithXLSXFormulas(true))
	s, err := ss.Sheet(0)
	require.NoError(t, err)
	set(t, s, "A1", "1")
	set(t, s, "B1", "=SUM(A1..A3)")
	set(t, s, "C1", "=(REF(A1) * 2)")
	set(t, s, "C2", "=REF(A1)")
	set(t, s, "C3", "=(hello+world)")
	set(t, s, "B2", "=AVG(A1..C1)")

	f := writeWorkbook(t, ss)
	for axis, want := range map[string]string{
		"B1": "SUM(A1:A3)",
		"B2": "AVERAGE(A1:C1)",
		"C1": "(A1*2)",
		"C2": "A1",
		"C3": "",
		"A1": "",
	} {
		got, err := f.GetCellFormula("0", axis)
		require.NoError(t, err)
		assert.Equal(t, want, got, axis)
	}
}

func TestSpreadsheet_WriteXLSXFormulasAfterInsert(t *testing.T) {
	ss := newTestSpreadsheet(t, WithSize(3, 3), WithXLSXFormulas(true))
	s, err := ss.Sheet(0)
	require.NoError(t, err)
	set(t, s, "B1", "=SUM(A2..A3)")
	require.NoError(t, s.InsertRow(0))

	f := writeWorkbook(t, ss)
	got, err := f.GetCellFormula("0", "B2")
	require.NoError(t, err)
	assert.Equal(t, "SUM(A2:A3)", got)
}

func TestUniqueSheetName(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "Data", uniqueSheetName("Data", used))
	assert.Equal(t, "data (2)", uniqueSheetName("data", used))
	assert.Equal(t, "Data (3)", uniqueSheetName("Data", used))

	long := "abcdefghijklmnopqrstuvwxyz01234"
	assert.Equal(t, long, uniqueSheetName(long, used))
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz0 (2)", uniqueSheetName(long, used))
}

// --- Import Tests ---

func TestImportXLSX_RoundTrip(t *testing.T) {
	ss := newTestSpreadsheet(t, WithSize(3, 3), WithXLSXFormulas(true))
	s, err := ss.Sheet(0)
	require.NoError(t, err)
	set(t, s, "A1", "1")
	set(t, s, "A2", "2")
	set(t, s, "B1", "=SUM(A1..A2)")
	set(t, s, "C1", "=(REF(A1) * 2)")
	cellAt(t, s, "A2").SetUnderline(true)

	var buf bytes.Buffer
	require.NoError(t, ss.WriteXLSX(&buf))

	imported, err := ImportXLSX(&buf, WithSize(3, 3))
	require.NoError(t, err)
	require.Equal(t, 1, imported.Len())
	got, err := imported.Sheet(0)
	require.NoError(t, err)

	assert.Equal(t, "0", got.Title())
	assert.Equal(t, "=SUM(A1..A2)", cellAt(t, got, "B1").Value().String())
	assert.Equal(t, "3", display(t, got, "B1"))
	assert.Equal(t, "2", display(t, got, "C1"))
	assert.True(t, cellAt(t, got, "A2").Underline())
	assert.False(t, cellAt(t, got, "A1").Underline())

	set(t, got, "A1", "10")
	assert.Equal(t, "12", display(t, got, "B1"))
	assert.Equal(t, "20", display(t, got, "C1"))
}

func TestImportXLSX_TranslatesFormulas(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", 4))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 6))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", 10))
	require.NoError(t, f.SetCellFormula("Sheet1", "A3", "A1+A2"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "looked up"))
	require.NoError(t, f.SetCellFormula("Sheet1", "B1", "VLOOKUP(A1,A1:A2,1)"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	var logs bytes.Buffer
	ss, err := ImportXLSX(buf, WithLogger(log.New(&logs, "", 0)))
	require.NoError(t, err)
	s, err := ss.Sheet(0)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", s.Title())
	rows, cols := s.Size()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 10, cols)
	assert.Equal(t, "=(REF(A1) + REF(A2))", cellAt(t, s, "A3").Value().String())
	assert.Equal(t, "10", display(t, s, "A3"))
	assert.Equal(t, "looked up", display(t, s, "B1"))
	assert.Contains(t, logs.String(), `formula "VLOOKUP(A1,A1:A2,1)" kept as value`)

	set(t, s, "A1", "5")
	assert.Equal(t, "11", display(t, s, "A3"))
}

func TestImportXLSX_TruncatesLargeSheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "top"))
	require.NoError(t, f.SetCellValue("Sheet1", "C200", "far"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	var logs bytes.Buffer
	ss, err := ImportXLSX(buf, WithLogger(log.New(&logs, "", 0)))
	require.NoError(t, err)
	s, err := ss.Sheet(0)
	require.NoError(t, err)

	rows, cols := s.Size()
	assert.Equal(t, MaxRows, rows)
	assert.Equal(t, 10, cols)
	assert.Equal(t, "top", display(t, s, "A1"))
	assert.Contains(t, logs.String(), "truncated 200x3 to 150x3")
}

func TestImportXLSX_InvalidInput(t *testing.T) {
	_, err := ImportXLSX(bytes.NewReader([]byte("not a workbook")))
	assert.ErrorContains(t, err, "open xlsx")
}

// --- Formula Translation Tests ---

func TestTranslateFormula(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"A1", "=REF(A1)", true},
		{"=$B$2", "=REF(B2)", true},
		{"SUM(A1:A3)", "=SUM(A1..A3)", true},
		{"sum(a1:a3)", "=SUM(A1..A3)", true},
		{"AVERAGE(B1:D1)", "=AVG(B1..D1)", true},
		{"A1*2+SUM(B1:B3)", "=(REF(A1) * 2 + SUM(B1..B3))", true},
		{"(A1+1)/2", "=((REF(A1) + 1) / 2)", true},
		{`"a"&B1`, `=("a" + REF(B1))`, true},
		{"-A1", "=(-REF(A1))", true},
		{"", "", false},
		{"VLOOKUP(A1,B1:C3,2)", "", false},
		{"Sheet2!A1", "", false},
		{"A1>2", "", false},
		{"SUM(A1)", "", false},
	}
	for _, tt := range tests {
		got, ok := TranslateFormula(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
