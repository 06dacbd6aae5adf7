package pagination

import "testing"

func TestResolve(t *testing.T) {
	cases := []struct {
		name        string
		limit       *int
		want        int
		wantBounded bool
	}{
		{"unset uses default", nil, DefaultLimit, true},
		{"explicit", Limit(5), 5, true},
		{"zero is unbounded", Limit(0), 0, false},
		{"negative is unbounded", Limit(-3), 0, false},
	}
	for _, tc := range cases {
		got, bounded := Resolve(tc.limit, DefaultLimit)
		if got != tc.want || bounded != tc.wantBounded {
			t.Fatalf("%s: got (%d,%v) want (%d,%v)", tc.name, got, bounded, tc.want, tc.wantBounded)
		}
	}
}
