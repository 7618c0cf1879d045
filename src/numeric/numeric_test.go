package numeric

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		want       decimal.Decimal
		wantStatus Status
	}{
		{name: "plain integer", token: "100", want: d("100"), wantStatus: StatusOK},
		{name: "currency", token: "$150.00", want: d("150"), wantStatus: StatusOK},
		{name: "currency with thousands", token: "$1,234,567.89", want: d("1234567.89"), wantStatus: StatusOK},
		{name: "negative currency sign first", token: "-$525.00", want: d("-525"), wantStatus: StatusOK},
		{name: "negative currency sign second", token: "$-525.00", want: d("-525"), wantStatus: StatusOK},
		{name: "accounting negative", token: "($42.10)", want: d("-42.1"), wantStatus: StatusOK},
		{name: "accounting with minus", token: "(-5)", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "accounting with plus", token: "(+5)", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "accounting with unicode minus", token: "(\u22125)", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "percent", token: "12.5%", want: d("12.5"), wantStatus: StatusOK},
		{name: "explicit plus", token: "+3.25", want: d("3.25"), wantStatus: StatusOK},
		{name: "surrounding whitespace", token: "   7.5  ", want: d("7.5"), wantStatus: StatusOK},
		{name: "rounded to four places", token: "1.23456789", want: d("1.2346"), wantStatus: StatusOK},
		{name: "rounds half away from zero", token: "0.00005", want: d("0.0001"), wantStatus: StatusOK},
		{name: "tiny value is zero", token: "1e-40", want: decimal.Zero, wantStatus: StatusOK},
		{name: "exponent notation", token: "1.5e3", want: d("1500"), wantStatus: StatusOK},
		{name: "empty", token: "", want: decimal.Zero, wantStatus: StatusEmpty},
		{name: "blank", token: "   ", want: decimal.Zero, wantStatus: StatusEmpty},
		{name: "N/A", token: "N/A", want: decimal.Zero, wantStatus: StatusEmpty},
		{name: "n/a lowercase", token: "n/a", want: decimal.Zero, wantStatus: StatusEmpty},
		{name: "Inf", token: "Inf", want: decimal.Zero, wantStatus: StatusInfinite},
		{name: "-Inf", token: "-Inf", want: decimal.Zero, wantStatus: StatusInfinite},
		{name: "Infinity", token: "Infinity", want: decimal.Zero, wantStatus: StatusInfinite},
		{name: "-Infinity mixed case", token: "-iNfInItY", want: decimal.Zero, wantStatus: StatusInfinite},
		{name: "currency infinity", token: "$Inf", want: decimal.Zero, wantStatus: StatusInfinite},
		{name: "NaN", token: "NaN", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "garbage", token: "abc", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "lone currency sign", token: "$", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "lone minus", token: "-", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "two dots", token: "1.2.3", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "huge exponent", token: "1e2000000000", want: decimal.Zero, wantStatus: StatusInvalid},
		{name: "huge negative exponent", token: "1e-2000000000", want: decimal.Zero, wantStatus: StatusOK},
		{name: "too many digits", token: strings.Repeat("9", 25), want: decimal.Zero, wantStatus: StatusInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.token)
			if got.Status != tt.wantStatus {
				t.Fatalf("Parse(%q) status = %s, want %s", tt.token, got.Status, tt.wantStatus)
			}
			if !got.Value.Equal(tt.want) {
				t.Fatalf("Parse(%q) = %s, want %s", tt.token, got.Value, tt.want)
			}
		})
	}
}

func TestParseNumericIsTotal(t *testing.T) {
	inputs := []string{
		"", "N/A", "Inf", "-Infinity", "$1,000.00", "55%", "garbage", "((1))", "()",
		"$$$", ",,,", "1e", "e1", "--5", "0x1F", "1_000", "\x00", "\uFEFF12", "😀",
		"9999999999999999999999999999e9999999999", "-0", "(-5)",
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() {
			v := ParseNumeric(in)
			assert.True(t, v.Abs().LessThan(decimal.New(1, maxDigits)), "value out of range for %q", in)
			assert.True(t, v.Equal(v.Round(Scale)), "value not rounded for %q", in)
		})
	}
}

func TestResultSubstituted(t *testing.T) {
	if Parse("").Substituted() {
		t.Fatalf("empty cell should not count as a substitution")
	}
	if !Parse("Inf").Substituted() {
		t.Fatalf("infinite token should count as a substitution")
	}
	if !Parse("abc").Substituted() {
		t.Fatalf("garbage token should count as a substitution")
	}
	if Parse("$3.00").Substituted() {
		t.Fatalf("valid currency should not count as a substitution")
	}
}
