package screen

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheck(t *testing.T) {
	s := New(DefaultBrands)
	existing := []string{"icicibank.com", "sbi.co.in", "onlinesbi.sbi"}

	tests := []struct {
		name          string
		domain        string
		wantMalicious bool
		wantTarget    string
	}{
		{name: "protected domain itself", domain: "icicibank.com"},
		{name: "same label other suffix", domain: "icicibank.co.in"},
		{name: "unrelated", domain: "randomsite.xyz"},
		{name: "brand itself", domain: "amazon.in"},
		{name: "deletion of existing", domain: "icicbank.com", wantMalicious: true, wantTarget: "icicibank.com"},
		{name: "substitution of existing", domain: "icicibenk.in", wantMalicious: true, wantTarget: "icicibank.com"},
		{name: "insertion against brand", domain: "paytmm.com", wantMalicious: true, wantTarget: "paytm"},
		{name: "transposition against brand", domain: "gogole.com", wantMalicious: true, wantTarget: "google"},
		{name: "short labels not compared", domain: "sbii.co.in"},
		{name: "two edits away", domain: "paytmmm.com"},
		{name: "scheme and case ignored", domain: "HTTPS://Paytmm.com/login", wantMalicious: true, wantTarget: "paytm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := s.Check(tt.domain, existing)
			if v.Malicious != tt.wantMalicious {
				t.Fatalf("Check(%q) = %+v, want malicious=%v", tt.domain, v, tt.wantMalicious)
			}
			if v.Target != tt.wantTarget {
				t.Errorf("Target = %q, want %q", v.Target, tt.wantTarget)
			}
			if v.Malicious && v.Reason == "" {
				t.Error("malicious verdict without reason")
			}
		})
	}
}

func TestCheck_InvalidNames(t *testing.T) {
	s := New(nil)
	for _, d := range []string{"", "localhost", "not a domain", "-bad.com", "bad-.com", "a..com", "co.in", "com"} {
		if v := s.Check(d, nil); !v.Malicious {
			t.Errorf("Check(%q) = %+v, want rejection", d, v)
		}
	}
}

func TestLoadBlocklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block.txt")
	content := "# known bad\nEvil.tk\n\n  phish.example.com  \n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(nil)
	if err := s.LoadBlocklist(path); err != nil {
		t.Fatalf("LoadBlocklist: %v", err)
	}
	if got := s.BlocklistSize(); got != 2 {
		t.Errorf("BlocklistSize = %d, want 2", got)
	}

	tests := []struct {
		domain string
		want   bool
	}{
		{"evil.tk", true},
		{"login.evil.tk", true},
		{"https://EVIL.tk/", true},
		{"phish.example.com", true},
		{"example.com", false},
		{"good.tk", false},
	}
	for _, tt := range tests {
		v := s.Check(tt.domain, nil)
		if v.Malicious != tt.want {
			t.Errorf("Check(%q) = %+v, want malicious=%v", tt.domain, v, tt.want)
		}
		if tt.want && v.Reason != "listed on blocklist" {
			t.Errorf("Check(%q) reason = %q", tt.domain, v.Reason)
		}
	}
}

func TestLoadBlocklist_MissingFile(t *testing.T) {
	s := New(nil)
	if err := s.LoadBlocklist(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNew_DedupesBrands(t *testing.T) {
	s := New([]string{"Paytm", " paytm ", "", "google"})
	if len(s.brands) != 2 {
		t.Errorf("brands = %q, want 2 entries", s.brands)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  SBI.co.in ":                 "sbi.co.in",
		"sbi.co.in.":                   "sbi.co.in",
		"https://www.sbi.co.in/login":  "www.sbi.co.in",
		"http://sbi.co.in:8080/path?q": "sbi.co.in",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"paytm", "paytm", 0},
		{"paytm", "paytmm", 1},
		{"paytm", "pytm", 1},
		{"paytm", "paytn", 1},
		{"google", "gogole", 1},
		{"kitten", "sitting", 3},
		{"ca", "abc", 3},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
