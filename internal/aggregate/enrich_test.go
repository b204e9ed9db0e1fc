package aggregate

import "testing"

func TestRowCount(t *testing.T) {
	cases := []struct {
		val  any
		want int64
	}{
		{int64(7), 7},
		{int32(3), 3},
		{int(9), 9},
		{nil, 0},
	}
	for _, tc := range cases {
		r := Row{"count": tc.val}
		if got := rowCount(r); got != tc.want {
			t.Errorf("rowCount(%v) = %d, want %d", tc.val, got, tc.want)
		}
	}
}
