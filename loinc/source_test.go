package loinc

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreHeader = "LOINC_NUM,COMPONENT,PROPERTY,TIME_ASPCT,SYSTEM,SCALE_TYP,METHOD_TYP,CLASS,SHORTNAME,LONG_COMMON_NAME,EXTERNAL_COPYRIGHT_NOTICE,STATUS"

func testParts(t *testing.T) *PartTable {
	t.Helper()
	parts, err := LoadPartTable(strings.NewReader(partCSV))
	require.NoError(t, err)
	return parts
}

func TestNewSource_MissingColumn(t *testing.T) {
	csv := "LOINC_NUM,COMPONENT\n8867-4,Heart rate\n"

	_, err := NewSource(strings.NewReader(csv), testParts(t), nil)
	require.Error(t, err)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "core", missing.Table)
}

func TestNewSource_NilParts(t *testing.T) {
	_, err := NewSource(strings.NewReader(coreHeader+"\n"), nil, nil)
	assert.ErrorIs(t, err, ErrPartTableRequired)
}

func TestNewSource_Empty(t *testing.T) {
	_, err := NewSource(strings.NewReader(""), testParts(t), nil)
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestSource_Next(t *testing.T) {
	csv := coreHeader + "\n" +
		"8867-4,Heart rate,LP6960-1,LP6969-2,LP7735-6,LP7753-9,,HRTRATE.ATOM,Heart rate,Heart rate,,ACTIVE\n"

	source, err := NewSource(strings.NewReader(csv), testParts(t), nil)
	require.NoError(t, err)

	term, err := source.Next()
	require.NoError(t, err)

	assert.Equal(t, "8867-4", term.Code)
	assert.Equal(t, "Heart rate", term.LongCommonName)
	assert.Equal(t, "Heart rate", term.Component)
	assert.Equal(t, "NRat", term.Property)
	assert.Equal(t, "Pt", term.TimeAspect)
	assert.Equal(t, "XXX", term.System)
	assert.Equal(t, "Qn", term.Scale)
	assert.Equal(t, "", term.Method)
	assert.Equal(t, 0, term.Position)

	_, err = source.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, source.Skipped())
}

func TestSource_Next_UnresolvedPartCode(t *testing.T) {
	// LP99999-9 has no part table entry; the raw code must flow through to
	// the term verbatim rather than becoming empty or an error.
	csv := coreHeader + "\n" +
		"2160-0,Creatinine,LP99999-9,LP6969-2,LP7735-6,LP7753-9,,CHEM,Creat,Creatinine [Mass/volume] in Serum or Plasma,,ACTIVE\n"

	source, err := NewSource(strings.NewReader(csv), testParts(t), nil)
	require.NoError(t, err)

	term, err := source.Next()
	require.NoError(t, err)
	assert.Equal(t, "LP99999-9", term.Property)
	assert.Contains(t, term.Payload()["Property"], "LP99999-9")
}

func TestSource_Next_SkipsInvalidRows(t *testing.T) {
	csv := coreHeader + "\n" +
		",Component only,,,,,,CLS,,Name,,\n" +
		"1111-1,,,,,,,CLS,,Name,,\n" +
		"2222-2,Component,,,,,,CLS,,,,\n" +
		"8867-4,Heart rate,LP6960-1,LP6969-2,LP7735-6,LP7753-9,,HRTRATE.ATOM,,Heart rate,,ACTIVE\n"

	source, err := NewSource(strings.NewReader(csv), testParts(t), nil)
	require.NoError(t, err)

	term, err := source.Next()
	require.NoError(t, err)
	assert.Equal(t, "8867-4", term.Code)
	assert.Equal(t, 3, term.Position, "position counts skipped rows")

	_, err = source.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, source.Skipped())
	assert.Equal(t, 4, source.Position())
}

func TestSource_Next_TrimsCode(t *testing.T) {
	csv := coreHeader + "\n" +
		" 8867-4 ,Heart rate,,,,,,CLS,,Heart rate,,\n"

	source, err := NewSource(strings.NewReader(csv), testParts(t), nil)
	require.NoError(t, err)

	term, err := source.Next()
	require.NoError(t, err)
	assert.Equal(t, "8867-4", term.Code)
}

func TestReadCodes(t *testing.T) {
	csv := coreHeader + "\n" +
		"8867-4,Heart rate,,,,,,CLS,,Heart rate,,\n" +
		",missing,,,,,,CLS,,Name,,\n" +
		"2160-0,Creatinine,,,,,,CHEM,,Creatinine,,\n"

	codes, err := ReadCodes(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []string{"8867-4", "2160-0"}, codes)
}

func TestReadCodes_MissingColumn(t *testing.T) {
	_, err := ReadCodes(strings.NewReader("COMPONENT,CLASS\nX,Y\n"))
	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "LOINC_NUM", missing.Column)
}
