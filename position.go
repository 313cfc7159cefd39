package xlcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// Position identifies a cell by its 0-based row and column.
type Position struct {
	Row int // 0-based row index
	Col int // 0-based column index
}

// NewPosition creates a Position with explicit row and col.
func NewPosition(row, col int) Position {
	return Position{Row: row, Col: col}
}

// ParsePosition parses a cell name like "A1" or "$B$12" into a Position.
func ParsePosition(s string) (Position, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	if s == "" {
		return Position{}, fmt.Errorf("empty cell reference")
	}

	i := 0
	for i < len(s) && isUpper(s[i]) {
		i++
	}
	if i == 0 || i == len(s) {
		return Position{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	col, err := NameToCol(s[:i])
	if err != nil {
		return Position{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}

	row := 0
	for _, ch := range s[i:] {
		if ch < '0' || ch > '9' {
			return Position{}, fmt.Errorf("invalid row in cell reference: %q", s)
		}
		row = row*10 + int(ch-'0')
		if row > maxRowNumber {
			return Position{}, fmt.Errorf("row number too large in cell reference: %q", s)
		}
	}
	if row < 1 {
		return Position{}, fmt.Errorf("invalid row number in cell reference: %q", s)
	}

	return Position{Row: row - 1, Col: col}, nil // convert 1-based row to 0-based
}

// maxRowNumber caps parsed row numbers so absurd references cannot overflow.
const maxRowNumber = 1 << 24

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// String formats the Position as "A1".
func (p Position) String() string {
	return ColToName(p.Col) + strconv.Itoa(p.Row+1)
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	if col < 0 {
		return ""
	}
	var buf []byte
	col++ // bijective base-26 works on 1-based indexes
	for col > 0 {
		col--
		buf = append(buf, byte('A'+col%26))
		col /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	if len(name) > 6 {
		return 0, fmt.Errorf("column name too long: %q", name)
	}
	col := 0
	for i := 0; i < len(name); i++ {
		if !isUpper(name[i]) {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(name[i]-'A') + 1
	}
	return col - 1, nil
}

// SafeSheetName sanitizes a sheet title for use as an Excel sheet name.
// It replaces forbidden characters ([]*?/\:) with underscore and truncates to 31 chars.
func SafeSheetName(name string) string {
	runes := []rune(name)
	for i, r := range runes {
		if strings.ContainsRune(`/\:*?[]`, r) {
			runes[i] = '_'
		}
	}
	if len(runes) > 31 {
		runes = runes[:31]
	}
	if len(runes) == 0 {
		return "Sheet"
	}
	return string(runes)
}
