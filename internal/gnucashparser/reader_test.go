package gnucashparser

import (
	"io"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisambiguateHeader(t *testing.T) {
	got := DisambiguateHeader([]string{"Wert mit Symbol", " Wert numerisch. ", "Wert mit Symbol", "Wert numerisch.", "Wert numerisch."})
	assert.Equal(t, []string{"Wert mit Symbol", "Wert numerisch.", "Wert mit Symbol.1", "Wert numerisch..1", "Wert numerisch..2"}, got)
}

func TestNewTableReader_SkipsBlankAndPads(t *testing.T) {
	table := NewTableReader([][]string{
		{"   "},
		{"a", "b", "c"},
		{"1"},
		{"", ""},
		{"4", "5", "6"},
	})

	assert.Equal(t, []string{"a", "b", "c"}, table.Header())
	assert.Equal(t, 2, table.Len())

	header, err := table.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, header)

	rest, err := table.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "", ""}, {"4", "5", "6"}}, rest)

	_, err = table.Read()
	assert.Equal(t, io.EOF, err)
}

func TestTableReader_GocsvBinding(t *testing.T) {
	table, err := NewDelimitedReader(strings.NewReader("x;y;x\n1;2;3\n"), ';', "utf-8")
	require.NoError(t, err)
	table.Rename(map[string]string{"x.1": "Second", "y": "Y"})

	type row struct {
		Second string `csv:"Second"`
		Y      string `csv:"Y"`
	}
	var rows []row
	require.NoError(t, gocsv.UnmarshalCSV(table, &rows))
	assert.Equal(t, []row{{Second: "3", Y: "2"}}, rows)
}

func TestNewDelimitedReader_UnknownEncoding(t *testing.T) {
	_, err := NewDelimitedReader(strings.NewReader("a\n"), ',', "klingon")
	assert.Error(t, err)
}

func TestEmptyTable(t *testing.T) {
	table := NewTableReader(nil)
	assert.Nil(t, table.Header())
	assert.Equal(t, 0, table.Len())
	_, err := table.Read()
	assert.Equal(t, io.EOF, err)
}
