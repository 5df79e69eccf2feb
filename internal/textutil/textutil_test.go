package textutil

import "testing"

func TestDisplayTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"scene dots", "/downloads/Some.Movie.2021.1080p.BluRay-GRP", "Some Movie 2021 1080P Bluray Grp"},
		{"dotted year kept", "/downloads/Some.Movie.2021", "Some Movie 2021"},
		{"underscores", "my_great_show_s01", "My Great Show S01"},
		{"archive path keeps base", "/downloads/release/archive.rar", "Archive"},
		{"empty", "", "Unknown Release"},
		{"separators only", "...", "Unknown Release"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DisplayTitle(tc.in); got != tc.want {
				t.Fatalf("DisplayTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Fatalf("Truncate should not cut short strings, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("Truncate with max 0 = %q", got)
	}
}
