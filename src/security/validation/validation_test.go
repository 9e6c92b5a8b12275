package validation

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectUploadKind(t *testing.T) {
	testCases := []struct {
		name     string
		content  []byte
		wantKind string
		wantErr  bool
	}{
		{
			name:     "plain csv",
			content:  []byte("ITEM;DESCRIÇÃO;TOTAL\n1;Cimento;R$ 100,00\n"),
			wantKind: KindCSV,
		},
		{
			name:     "zip container is xlsx",
			content:  append([]byte{0x50, 0x4b, 0x03, 0x04}, []byte("rest of workbook")...),
			wantKind: KindXLSX,
		},
		{
			name:    "empty file",
			content: nil,
			wantErr: true,
		},
		{
			name:    "binary with null bytes",
			content: []byte{0x7f, 0x45, 0x4c, 0x46, 0x00, 0x00, 0x01},
			wantErr: true,
		},
		{
			name:    "invalid utf8",
			content: []byte{0xff, 0xfe, 0xfd, 0xfc},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reader := bytes.NewReader(tc.content)
			kind, err := DetectUploadKind(reader)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, kind)

			// The read pointer must be back at the start for the parser.
			pos, err := reader.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Equal(t, int64(0), pos)
		})
	}
}

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("text/csv"))
	assert.NoError(t, ValidateClientContentType("TEXT/CSV"))
	assert.NoError(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Error(t, ValidateClientContentType("application/pdf"))
	assert.Error(t, ValidateClientContentType(""))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Cimento CP-II", SanitizeText("Cimento CP-II"))
	assert.Equal(t, "Cimento", SanitizeText("<script>alert(1)</script>Cimento"))
	assert.Equal(t, "negrito", SanitizeText("<b>negrito</b>"))
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1:A9)", SanitizeForFormulaInjection("=SUM(A1:A9)"))
	assert.Equal(t, "'+1234", SanitizeForFormulaInjection("+1234"))
	assert.Equal(t, "'@cmd", SanitizeForFormulaInjection("@cmd"))
	assert.Equal(t, "Cimento", SanitizeForFormulaInjection("Cimento"))
	assert.Equal(t, "", SanitizeForFormulaInjection(""))
	assert.Equal(t, "  ", SanitizeForFormulaInjection("  "))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "abc\tdef", StripUnprintable("abc\tdef"))
	assert.Equal(t, "abc", StripUnprintable("a\x00b\x07c"))
	assert.Equal(t, "Descrição", StripUnprintable("Descrição"))
}

func TestCheckXSSPatterns(t *testing.T) {
	assert.NoError(t, CheckXSSPatterns("Cimento CP-II", "description", "test"))
	assert.Error(t, CheckXSSPatterns("<script>alert(1)</script>", "description", "test"))
	assert.Error(t, CheckXSSPatterns("<IMG SRC= javascript:alert(1)>", "description", "test"))
	assert.Error(t, CheckXSSPatterns("click javascript:void(0)", "description", "test"))
}

func TestCheckFormulaInjection(t *testing.T) {
	assert.NoError(t, CheckFormulaInjection("Cimento", "description", "test"))
	assert.Error(t, CheckFormulaInjection("=HYPERLINK(...)", "description", "test"))
	assert.Error(t, CheckFormulaInjection("  -2+3", "description", "test"))
}

func TestValidateSheetName(t *testing.T) {
	assert.NoError(t, ValidateSheetName(""))
	assert.NoError(t, ValidateSheetName("ARP"))
	assert.NoError(t, ValidateSheetName("Planilha 1 (2024)"))
	assert.Error(t, ValidateSheetName(strings.Repeat("A", MaxSheetNameLength+1)))
	assert.Error(t, ValidateSheetName("ARP<script>"))
}

func TestValidateColumnName(t *testing.T) {
	assert.NoError(t, ValidateColumnName("", "amount_column"))
	assert.NoError(t, ValidateColumnName("TOTAL", "amount_column"))
	assert.NoError(t, ValidateColumnName("VALOR TOTAL (R$)", "amount_column"))
	assert.Error(t, ValidateColumnName("TOTAL;DROP", "amount_column"))
}

func TestParseExcludeRows(t *testing.T) {
	rows, err := ParseExcludeRows("14, 15,30")
	require.NoError(t, err)
	assert.Equal(t, []int{14, 15, 30}, rows)

	rows, err = ParseExcludeRows("")
	require.NoError(t, err)
	assert.Nil(t, rows)

	_, err = ParseExcludeRows("1,abc")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ParseExcludeRows("0")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ParseExcludeRows("-3")
	assert.ErrorIs(t, err, ErrValidationFailed)
}
