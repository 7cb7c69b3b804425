package core

import "testing"

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in  string
		out Period
		ok  bool
	}{
		{"2025", Period{Type: Annual, Year: 2025}, true},
		{"2025-Q3", Period{Type: Quarterly, Year: 2025, Quarter: 3}, true},
		{"2025-Q1", Period{Type: Quarterly, Year: 2025, Quarter: 1}, true},
		{"2025-Q4", Period{Type: Quarterly, Year: 2025, Quarter: 4}, true},
		{"2025-Q5", Period{}, false},
		{"2025-Q0", Period{}, false},
		{"2025-Qx", Period{}, false},
		{"25-Q1", Period{}, false},
		{"20251", Period{}, false},
		{"", Period{}, false},
		{"Q3-2025", Period{}, false},
		{"2025-3", Period{}, false},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %+v, got %+v (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %+v", tc.in, got)
			}
		}
	}
}

func TestPeriodISORoundTrip(t *testing.T) {
	for _, iso := range []string{"2025", "1999", "2025-Q1", "2024-Q4"} {
		p, err := ParsePeriod(iso)
		if err != nil {
			t.Fatalf("parse %q: %v", iso, err)
		}
		if p.ISO() != iso {
			t.Fatalf("%q did not round-trip, got %q", iso, p.ISO())
		}
	}
}

func TestPriorYear(t *testing.T) {
	cases := []struct{ in, out string }{
		{"2025-Q3", "2024-Q3"},
		{"2025-Q1", "2024-Q1"},
		{"2025", "2024"},
		{"2000", "1999"},
	}
	for _, tc := range cases {
		p, err := ParsePeriod(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got := p.PriorYear().ISO(); got != tc.out {
			t.Fatalf("prior of %q expected %q, got %q", tc.in, tc.out, got)
		}
		// PriorYear then NextYear is the identity, exactly.
		if got := p.PriorYear().NextYear(); got != p {
			t.Fatalf("prior/next of %q did not round-trip, got %+v", tc.in, got)
		}
	}
}

func TestComparePeriods(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2024-Q1", "2025-Q1", -1},
		{"2025-Q1", "2024-Q4", 1},
		{"2025-Q2", "2025-Q3", -1},
		{"2025-Q3", "2025-Q3", 0},
		{"2024", "2025", -1},
		{"2025", "2025", 0},
	}
	for _, tc := range cases {
		a, _ := ParsePeriod(tc.a)
		b, _ := ParsePeriod(tc.b)
		if got := ComparePeriods(a, b); got != tc.want {
			t.Fatalf("compare(%q,%q) expected %d, got %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompareISOMalformedKeysSortLast(t *testing.T) {
	if got := CompareISO("2025-Q1", "garbage"); got != -1 {
		t.Fatalf("valid key should sort before malformed one, got %d", got)
	}
	if got := CompareISO("garbage", "2025"); got != 1 {
		t.Fatalf("malformed key should sort after valid one, got %d", got)
	}
	if got := CompareISO("bad-a", "bad-b"); got >= 0 {
		t.Fatalf("malformed keys should fall back to string order, got %d", got)
	}
}

func TestLabel(t *testing.T) {
	cases := []struct{ iso, label string }{
		{"2025-Q1", "Jan 2025"},
		{"2025-Q2", "Apr 2025"},
		{"2025-Q3", "Jul 2025"},
		{"2025-Q4", "Oct 2025"},
		{"2025", "2025"},
	}
	for _, tc := range cases {
		p, err := ParsePeriod(tc.iso)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.iso, err)
		}
		if got := p.Label(); got != tc.label {
			t.Fatalf("label of %q expected %q, got %q", tc.iso, tc.label, got)
		}
	}
}

func TestLabelToISO(t *testing.T) {
	cases := []struct {
		label string
		pt    PeriodType
		want  string
	}{
		{"Jul 2025", Quarterly, "2025-Q3"},
		{"Jan 2025", Quarterly, "2025-Q1"},
		// Non-reporting months still collapse onto their quarter.
		{"Aug 2025", Quarterly, "2025-Q3"},
		{"Dec 2024", Quarterly, "2024-Q4"},
		{"2025", Annual, "2025"},
		// Unrecognised shapes pass through unchanged.
		{"July 2025", Quarterly, "July 2025"},
		{"Jul", Quarterly, "Jul"},
		{"Jul 25", Quarterly, "Jul 25"},
		{"whatever", Annual, "whatever"},
	}
	for _, tc := range cases {
		if got := LabelToISO(tc.label, tc.pt); got != tc.want {
			t.Fatalf("LabelToISO(%q,%s) expected %q, got %q", tc.label, tc.pt, tc.want, got)
		}
	}
}
