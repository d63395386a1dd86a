package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		// Valid cases — dataset headers are messy, quoting covers them
		{name: "simple", input: "order_id"},
		{name: "mixed_case", input: "OrderTotal"},
		{name: "with_space", input: "Order Total"},
		{name: "with_hyphen", input: "unit-price"},
		{name: "with_quote", input: `said "net"`},
		{name: "max_length", input: strings.Repeat("a", 256)},

		// Invalid cases
		{name: "empty", input: "", wantErr: "identifier is required"},
		{name: "too_long", input: strings.Repeat("a", 257), wantErr: "at most 256 characters"},
		{name: "embedded_nul", input: "a\x00b", wantErr: "control characters"},
		{name: "embedded_newline", input: "a\nb", wantErr: "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "amount", want: `"amount"`},
		{name: "with_double_quote", input: `my"col`, want: `"my""col"`},
		{name: "multiple_quotes", input: `a"b"c`, want: `"a""b""c"`},
		{name: "with_space", input: "Order Total", want: `"Order Total"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteIdentifier(tt.input))
		})
	}
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'data/input/x.csv'", QuoteLiteral("data/input/x.csv"))
	assert.Equal(t, "'it''s'", QuoteLiteral("it's"))
}

func TestCreateDatasetView(t *testing.T) {
	sql, err := CreateDatasetView("data/input/abc.csv")
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE VIEW "dataset" AS SELECT * FROM read_csv_auto('data/input/abc.csv', IGNORE_ERRORS=true)`,
		sql)

	_, err = CreateDatasetView("")
	require.Error(t, err)
}

func TestCopyToCSV(t *testing.T) {
	sql, err := CopyToCSV(`SELECT * FROM "dataset" WHERE "amount" > ?`, "out/a.csv")
	require.NoError(t, err)
	assert.Equal(t,
		`COPY (SELECT * FROM "dataset" WHERE "amount" > ?) TO 'out/a.csv' (HEADER, DELIMITER ',')`,
		sql)

	_, err = CopyToCSV("", "out/a.csv")
	require.Error(t, err)
	_, err = CopyToCSV("SELECT 1", "")
	require.Error(t, err)
}
