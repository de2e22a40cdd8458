package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"healthdash/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportWorkbookTruncatesSheetNameByCharacter(t *testing.T) {
	name := strings.Repeat("é", 40)
	table := &warehouse.Table{
		Columns: []string{"city", "visits"},
		Rows:    []warehouse.Row{{"city": "Montréal", "visits": int64(3)}},
	}

	data, err := exportWorkbook(name, table)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.True(t, utf8.ValidString(sheets[0]))
	assert.Equal(t, strings.Repeat("é", maxSheetName), sheets[0])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"city", "visits"}, {"Montréal", "3"}}, rows)
}
