package cli

import "testing"

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.want {
			t.Fatalf("FormatAmount(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100", 100, false},
		{"1_000_000", 1000000, false},
		{"2,500", 2500, false},
		{" 42 ", 42, false},
		{"", 0, true},
		{"ten", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseAmount(%q) succeeded, want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestUtilization(t *testing.T) {
	if got := Utilization(5, 10); got != 0.5 {
		t.Fatalf("Utilization(5, 10) = %f, want 0.5", got)
	}
	if got := Utilization(0, 0); got != 0 {
		t.Fatalf("Utilization(0, 0) = %f, want 0", got)
	}
	if got := Utilization(20, 10); got != 1 {
		t.Fatalf("Utilization(20, 10) = %f, want clamped 1", got)
	}
}
