package util

import "testing"

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "padded slash date", input: "05/03/2024", want: "2024-03-05"},
		{name: "unpadded slash date", input: "5/3/2024", want: "2024-03-05"},
		{name: "already iso", input: "2024-03-05", want: "2024-03-05"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeDate(tc.input)
			if got == nil {
				t.Fatalf("date is nil")
			}
			if *got != tc.want {
				t.Fatalf("got %s want %s", *got, tc.want)
			}
		})
	}
}

func TestNormalizeDateRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not-a-date", "31/02/2024", "05-03-2024", "13/13/2024"} {
		if got := NormalizeDate(input); got != nil {
			t.Fatalf("input %q: got %q want nil", input, *got)
		}
	}
}
