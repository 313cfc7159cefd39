package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Position Tests ---

func TestParsePosition_SimpleCell(t *testing.T) {
	pos, err := ParsePosition("A1")
	require.NoError(t, err)
	assert.Equal(t, Position{Row: 0, Col: 0}, pos)
}

func TestParsePosition_MultiLetterCol(t *testing.T) {
	pos, err := ParsePosition("AZ10")
	require.NoError(t, err)
	assert.Equal(t, 9, pos.Row)
	assert.Equal(t, 51, pos.Col) // AZ = 26+25 = 51
}

func TestParsePosition_Absolute(t *testing.T) {
	pos, err := ParsePosition("$B$12")
	require.NoError(t, err)
	assert.Equal(t, Position{Row: 11, Col: 1}, pos)
}

func TestParsePosition_Invalid(t *testing.T) {
	for _, s := range []string{"", "A", "123", "A0", "a1", "A1B", "ABCDEFG1", "A99999999999"} {
		_, err := ParsePosition(s)
		assert.Error(t, err, s)
	}
}

func TestPosition_String(t *testing.T) {
	assert.Equal(t, "A1", Position{}.String())
	assert.Equal(t, "Z26", NewPosition(25, 25).String())
	assert.Equal(t, "AA3", NewPosition(2, 26).String())
}

func TestColToName_RoundTrip(t *testing.T) {
	assert.Equal(t, "A", ColToName(0))
	assert.Equal(t, "Z", ColToName(25))
	assert.Equal(t, "AA", ColToName(26))
	assert.Equal(t, "AAA", ColToName(702))
	assert.Equal(t, "", ColToName(-1))

	for col := 0; col < 1000; col++ {
		back, err := NameToCol(ColToName(col))
		require.NoError(t, err)
		assert.Equal(t, col, back)
	}
}

func TestNameToCol_Invalid(t *testing.T) {
	_, err := NameToCol("")
	assert.Error(t, err)
	_, err = NameToCol("a")
	assert.Error(t, err)
	_, err = NameToCol("A1")
	assert.Error(t, err)
}

func TestSafeSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c", SafeSheetName("a/b:c"))
	assert.Equal(t, "Sheet", SafeSheetName(""))
	assert.Len(t, []rune(SafeSheetName("abcdefghijklmnopqrstuvwxyz0123456789")), 31)
}
