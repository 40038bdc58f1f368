package pricing

import "testing"

func TestFormatINR(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{12345678, "₹1.23 Crore"},
		{10000000, "₹1.00 Crore"},
		{523400, "₹5.23 Lakh"},
		{100000, "₹1.00 Lakh"},
		{99999.5, "₹99,999.50"},
		{4500, "₹4,500.00"},
		{999, "₹999.00"},
		{0, "₹0.00"},
		{-1234.5, "₹-1,234.50"},
	}
	for _, tt := range tests {
		if got := FormatINR(tt.amount); got != tt.want {
			t.Errorf("FormatINR(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
