package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseChannelMap(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []int
	}{
		{"empty", "", nil},
		{"single", "1", []int{0}},
		{"list", "1,2,4", []int{0, 1, 3}},
		{"stops at zero", "1,0,3", []int{0}},
		{"stops at non-numeric", "2,x,3", []int{1}},
		{"whitespace tolerant", "1, 2, 3", []int{0, 1, 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseChannelMap(c.in)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("ParseChannelMap(%q) mismatch (-want +got):\n%s", c.in, diff)
			}
		})
	}
}
