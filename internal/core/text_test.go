package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReadText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("Domain\nsbi.co.in")...),
			expected: "Domain\nsbi.co.in",
		},
		{
			name:     "file without BOM",
			input:    []byte("Domain\nsbi.co.in"),
			expected: "Domain\nsbi.co.in",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'a', 0x80, '.', 'c', 'o', 'm'},
			expected: "a�.com",
		},
		{
			name:     "valid multibyte kept",
			input:    []byte("bücher.de"),
			expected: "bücher.de",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadText(bytes.NewReader(tt.input), 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestReadText_TooLarge(t *testing.T) {
	_, err := ReadText(strings.NewReader(strings.Repeat("a", 11)), 10)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}

	got, err := ReadText(strings.NewReader(strings.Repeat("a", 10)), 10)
	if err != nil {
		t.Fatalf("file at the limit: unexpected error %v", err)
	}
	if len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
}

func TestReadText_BOMFileParses(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Domain,Organization,Sector\r\nsbi.co.in,SBI,BFSI\r\n")...)
	text, err := ReadText(bytes.NewReader(input), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, format := ParseRecords(text)
	if format != FormatMulti {
		t.Errorf("format = %q, want %q", format, FormatMulti)
	}
	if len(records) != 1 || records[0].Sector != "BFSI" {
		t.Errorf("records = %+v", records)
	}
}
