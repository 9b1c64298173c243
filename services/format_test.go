package services

import "testing"

func TestFormatINR(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{"zero", 0, "₹0.00"},
		{"per card rate", 155.925, "₹155.93"},
		{"estimate total with GST", 1839.92, "₹1,839.92"},
		{"invoice grand total", 2360, "₹2,360.00"},
		{"lakhs", 1559250, "₹15,59,250.00"},
		{"crores", 12345678.9, "₹1,23,45,678.90"},
		{"loyalty discount line", -59, "-₹59.00"},
		{"rounds to zero", -0.004, "₹0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatINR(tt.input); got != tt.want {
				t.Errorf("FormatINR(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatRoundOff(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.35, "+₹0.35"},
		{-0.347, "-₹0.35"},
		{0, "₹0.00"},
		{0.001, "₹0.00"},
	}
	for _, tt := range tests {
		if got := FormatRoundOff(tt.in); got != tt.want {
			t.Errorf("FormatRoundOff(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{18, "18%"},
		{9, "9%"},
		{2.5, "2.5%"},
		{12.75, "12.75%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatQty(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{2.5, "2.50"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := formatQty(tt.in); got != tt.want {
			t.Errorf("formatQty(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroupIndian(t *testing.T) {
	tests := map[string]string{
		"7":          "7",
		"999":        "999",
		"2360":       "2,360",
		"155925":     "1,55,925",
		"1234567890": "1,23,45,67,890",
	}
	for in, want := range tests {
		if got := groupIndian(in); got != want {
			t.Errorf("groupIndian(%q) = %q, want %q", in, got, want)
		}
	}
}
