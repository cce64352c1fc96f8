package recovery

import (
	"regexp"
	"strings"
	"testing"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}$`)

func TestGenerateBatch_SizeAndFormat(t *testing.T) {
	codes, err := GenerateBatch()
	if err != nil {
		t.Fatalf("GenerateBatch: %v", err)
	}
	if len(codes) != BatchSize {
		t.Fatalf("len(codes) = %d, want %d", len(codes), BatchSize)
	}
	for _, c := range codes {
		if !codePattern.MatchString(c) {
			t.Errorf("code %q does not match XXXX-XXXX", c)
		}
		for _, r := range strings.ReplaceAll(c, "-", "") {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Errorf("code %q contains %q outside the 32-symbol alphabet", c, r)
			}
		}
	}
}

func TestCodeAlphabet_ExcludesAmbiguous(t *testing.T) {
	if len(codeAlphabet) != 32 {
		t.Fatalf("alphabet length = %d, want 32", len(codeAlphabet))
	}
	for _, r := range "IO01" {
		if strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("alphabet must not contain ambiguous character %q", r)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AB12-CD34", "AB12CD34"},
		{"ab12cd34", "AB12CD34"},
		{"  ab12 - cd34  ", "AB12CD34"},
		{"a-b-1-2-c-d-3-4", "AB12CD34"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizedValid(t *testing.T) {
	if !NormalizedValid("AB12CD34") {
		t.Error("8-character normalized code should be valid")
	}
	for _, bad := range []string{"", "AB12CD3", "AB12CD345"} {
		if NormalizedValid(bad) {
			t.Errorf("NormalizedValid(%q) should be false", bad)
		}
	}
}

func TestHash_CaseAndSeparatorInsensitive(t *testing.T) {
	a := Hash("ABCD-1234")
	b := Hash("abcd1234")
	if a != b {
		t.Errorf("hash(%q) != hash(%q)", "ABCD-1234", "abcd1234")
	}
	if a == Hash("ABCD-1235") {
		t.Error("distinct codes must not collide trivially")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
