package models

import (
	"encoding/json"
	"testing"
)

// TestParseVersion verifies the string form round trips
func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	if err != nil {
		t.Fatalf("ParseVersion failed: %v", err)
	}
	if v != (Version{Major: 1, Minor: 2, Patch: 3}) {
		t.Errorf("unexpected version %+v", v)
	}
	if v.String() != "1.2.3" {
		t.Errorf("String() = %q", v.String())
	}

	for _, bad := range []string{"", "1.2", "1.2.3.4", "a.b.c", "1.-2.3"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("ParseVersion(%q) should fail", bad)
		}
	}
}

// TestVersionCompare verifies ordering across all three components
func TestVersionCompare(t *testing.T) {
	cases := []struct {
		a, b Version
		want int
	}{
		{Version{1, 0, 0}, Version{1, 0, 0}, 0},
		{Version{1, 0, 0}, Version{2, 0, 0}, -1},
		{Version{1, 2, 0}, Version{1, 1, 9}, 1},
		{Version{1, 1, 1}, Version{1, 1, 2}, -1},
	}
	for _, tc := range cases {
		if got := tc.a.Compare(tc.b); got != tc.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

// TestVersionJSON verifies the string JSON encoding
func TestVersionJSON(t *testing.T) {
	data, err := json.Marshal(Version{Major: 1, Minor: 2, Patch: 0})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"1.2.0"` {
		t.Errorf("unexpected JSON %s", data)
	}

	var v Version
	if err := json.Unmarshal([]byte(`"2.0.1"`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v != (Version{Major: 2, Minor: 0, Patch: 1}) {
		t.Errorf("unexpected version %+v", v)
	}

	if err := json.Unmarshal([]byte(`123`), &v); err == nil {
		t.Error("numeric version should be rejected")
	}
}
