package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(config.DefaultColumnSchema(), config.DefaultDateLayouts())
}

func TestNormalizeFileRecoversPerRow(t *testing.T) {
	path := writeCSV(t, `Date,Description,Amount,Type
2024-06-01,UBER *TRIP,420.50,DR
2024-06-02,SALARY JUNE,"85,000.00",CR
not-a-date,GHOST ROW,100,DR
2024-06-03,SWIGGY ORDER,(350.00),
`)

	result, err := newTestNormalizer().NormalizeFile(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 3)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 1, result.RejectedCount())

	// Debit flag forces the sign negative.
	assert.InDelta(t, -420.50, result.Transactions[0].Amount, 0.001)
	assert.Equal(t, "UBER *TRIP", result.Transactions[0].RawDescription)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), result.Transactions[0].Date)

	// Credit flag with a thousands separator.
	assert.InDelta(t, 85000.00, result.Transactions[1].Amount, 0.001)

	// Parenthesized negative without a flag keeps its sign.
	assert.InDelta(t, -350.00, result.Transactions[2].Amount, 0.001)

	// The bad row is reported with its source line.
	assert.Equal(t, 4, result.Rejected[0].Line)
	assert.Contains(t, result.Rejected[0].Reason, "unparseable date")
}

func TestNormalizeFileHeaderSynonyms(t *testing.T) {
	path := writeCSV(t, `Txn Date,Narration,INR,DR_CR
02/06/2024,COFFEE SHOP,120.00,D
`)

	result, err := newTestNormalizer().NormalizeFile(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.InDelta(t, -120.00, result.Transactions[0].Amount, 0.001)
	assert.Equal(t, "COFFEE SHOP", result.Transactions[0].RawDescription)
}

func TestNormalizeFileNoUsableColumns(t *testing.T) {
	path := writeCSV(t, `Foo,Bar
1,2
`)

	_, err := newTestNormalizer().NormalizeFile(context.Background(), path)
	require.ErrorIs(t, err, common.ErrNoUsableColumns)
}

func TestNormalizeFileEmptyInput(t *testing.T) {
	path := writeCSV(t, `Date,Amount
`)

	_, err := newTestNormalizer().NormalizeFile(context.Background(), path)
	require.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestNormalizeFileUnsupportedExtension(t *testing.T) {
	_, err := newTestNormalizer().NormalizeFile(context.Background(), "statement.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestNormalizeRowIDAndHash(t *testing.T) {
	path := writeCSV(t, `Date,Description,Amount
2024-06-01,UBER,-100
2024-06-01,UBER,-100
`)

	result, err := newTestNormalizer().NormalizeFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	assert.Equal(t, "export.csv:2", result.Transactions[0].ID)
	assert.Equal(t, "export.csv:3", result.Transactions[1].ID)
	assert.Equal(t, 2, result.Transactions[0].SourceRowID)

	// Identical rows carry identical content hashes but distinct IDs.
	assert.Equal(t, result.Transactions[0].Hash, result.Transactions[1].Hash)
	assert.NotEqual(t, result.Transactions[0].ID, result.Transactions[1].ID)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{name: "plain", raw: "100.50", want: 100.50},
		{name: "negative", raw: "-42", want: -42},
		{name: "thousands separators", raw: "1,23,456.78", want: 123456.78},
		{name: "currency prefix", raw: "$99.99", want: 99.99},
		{name: "parenthesized negative", raw: "(250.00)", want: -250},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "n/a", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestNormalizeTypeFlag(t *testing.T) {
	tests := []struct {
		raw  string
		want typeFlag
	}{
		{raw: "D", want: flagDebit},
		{raw: "dr", want: flagDebit},
		{raw: "DEBIT", want: flagDebit},
		{raw: "WITHDRAWAL", want: flagDebit},
		{raw: "C", want: flagCredit},
		{raw: "cr ", want: flagCredit},
		{raw: "DEPOSIT", want: flagCredit},
		{raw: "", want: flagUnknown},
		{raw: "TRANSFER", want: flagUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeTypeFlag(tt.raw), "flag %q", tt.raw)
	}
}

func TestNormalizeColumnName(t *testing.T) {
	assert.Equal(t, "txn_date", normalizeColumnName("Txn Date"))
	assert.Equal(t, "txn_date", normalizeColumnName("TXN-DATE"))
	assert.Equal(t, "amount", normalizeColumnName(" Amount "))
}
