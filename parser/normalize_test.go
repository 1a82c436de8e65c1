package parser

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{
			name:     "pound symbol",
			input:    "£51.77",
			expected: 51.77,
		},
		{
			name:     "with whitespace",
			input:    "  £10.50  ",
			expected: 10.50,
		},
		{
			name:     "already numeric",
			input:    "25.99",
			expected: 25.99,
		},
		{
			name:     "encoding artifact",
			input:    "Â£99.99",
			expected: 99.99,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no digits",
			input:   "free",
			wantErr: true,
		},
		{
			name:    "multiple dots",
			input:   "£1.2.3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := ParsePrice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && value != tt.expected {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, value, tt.expected)
			}
		})
	}
}

func TestNormalizeSpace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "nested markup whitespace",
			input:    "\n\n    In stock (22 available)\n",
			expected: "In stock (22 available)",
		},
		{
			name:     "internal runs",
			input:    "In   stock",
			expected: "In stock",
		},
		{
			name:     "already clean",
			input:    "In stock",
			expected: "In stock",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSpace(tt.input); got != tt.expected {
				t.Errorf("NormalizeSpace(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRatingToNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{input: "Zero", expected: 0},
		{input: "One", expected: 1},
		{input: "Two", expected: 2},
		{input: "Three", expected: 3},
		{input: "Four", expected: 4},
		{input: "Five", expected: 5},
		{input: "Invalid", expected: 0},
		{input: "", expected: 0},
		{input: "three", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := RatingToNumeric(tt.input); got != tt.expected {
				t.Errorf("RatingToNumeric(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}
