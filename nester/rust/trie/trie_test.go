package trie

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/text/language"
)

func sortedPaths(paths [][]string) [][]string {
	t := Build(paths)
	NewSorter(language.Und).Sort(t)
	return t.Paths()
}

func TestBuild(t *testing.T) {
	testCases := []struct {
		desc  string
		paths [][]string
		want  [][]string
	}{
		{
			desc: "empty",
			want: nil,
		},
		{
			desc:  "duplicate paths merge",
			paths: [][]string{{"std", "env"}, {"std", "env"}},
			want:  [][]string{{"std", "env"}},
		},
		{
			desc:  "shared prefix",
			paths: [][]string{{"std", "io", "Write"}, {"std", "io", "BufReader"}, {"std", "env"}},
			want:  [][]string{{"std", "io", "Write"}, {"std", "io", "BufReader"}, {"std", "env"}},
		},
		{
			desc:  "prefix import becomes self",
			paths: [][]string{{"std", "io"}, {"std", "io", "Write"}},
			want:  [][]string{{"std", "io", "Write"}, {"std", "io", "self"}},
		},
		{
			desc:  "explicit self is not duplicated",
			paths: [][]string{{"std", "io"}, {"std", "io", "self"}, {"std", "io", "Read"}},
			want:  [][]string{{"std", "io", "self"}, {"std", "io", "Read"}},
		},
		{
			desc:  "empty path is ignored",
			paths: [][]string{{}, {"a"}},
			want:  [][]string{{"a"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := Build(tc.paths).Paths()
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("unexpected diff (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestInsertionOrderDoesNotMatter(t *testing.T) {
	a := [][]string{{"std", "sync", "Mutex"}, {"anyhow", "Result"}, {"std", "sync", "Arc"}, {"std", "env"}}
	b := [][]string{{"std", "env"}, {"std", "sync", "Arc"}, {"anyhow", "Result"}, {"std", "sync", "Mutex"}, {"std", "env"}}

	if diff := cmp.Diff(sortedPaths(a), sortedPaths(b)); diff != "" {
		t.Errorf("unexpected diff (-a, +b):\n%s", diff)
	}
}

func TestSort(t *testing.T) {
	testCases := []struct {
		desc     string
		segments []string
		want     []string
	}{
		{
			desc:     "lowercase before uppercase",
			segments: []string{"B", "b", "a", "A"},
			want:     []string{"a", "b", "A", "B"},
		},
		{
			desc:     "modules before types",
			segments: []string{"HashMap", "collections", "Entry", "hash_map"},
			want:     []string{"collections", "hash_map", "Entry", "HashMap"},
		},
		{
			desc:     "prefix first",
			segments: []string{"serde_json", "serde"},
			want:     []string{"serde", "serde_json"},
		},
		{
			desc:     "self is a lowercase segment",
			segments: []string{"Write", "self", "Read"},
			want:     []string{"self", "Read", "Write"},
		},
		{
			desc:     "underscore and digits are not lowercase",
			segments: []string{"_private", "zeta", "9lives"},
			want:     []string{"zeta", "_private", "9lives"},
		},
		{
			desc:     "collation instead of byte order",
			segments: []string{"Zed", "Éclair"},
			want:     []string{"Éclair", "Zed"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			tr := New()
			for _, s := range tc.segments {
				tr.Insert(s)
			}
			NewSorter(language.Und).Sort(tr)
			if diff := cmp.Diff(tc.want, tr.Segments()); diff != "" {
				t.Errorf("unexpected diff (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestSortIsRecursive(t *testing.T) {
	got := sortedPaths([][]string{
		{"std", "sync", "Mutex"},
		{"std", "sync", "Arc"},
		{"std", "env"},
		{"anyhow", "Result"},
	})
	want := [][]string{
		{"anyhow", "Result"},
		{"std", "env"},
		{"std", "sync", "Arc"},
		{"std", "sync", "Mutex"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diff (-want, +got):\n%s", diff)
	}
}

func TestSortLaw(t *testing.T) {
	segments := []string{"b", "B", "a", "A", "io", "Io", "ptr", "PTR", "z", "Z", "_", "0", "self"}
	s := NewSorter(language.Und)

	for _, a := range segments {
		for _, b := range segments {
			got := s.Compare(a, b)
			if a == b {
				if got != 0 {
					t.Errorf("Compare(%q, %q) = %d, want 0", a, b, got)
				}
				continue
			}
			if got == 0 {
				t.Errorf("Compare(%q, %q) = 0 for distinct segments", a, b)
			}
			if rev := s.Compare(b, a); (got < 0) == (rev < 0) {
				t.Errorf("Compare(%q, %q) = %d and Compare(%q, %q) = %d are not antisymmetric", a, b, got, b, a, rev)
			}
			if segmentClass(a) == 0 && segmentClass(b) == 1 && got >= 0 {
				t.Errorf("Compare(%q, %q) = %d, lowercase must come first", a, b, got)
			}
		}
	}
}

func TestIsLeafList(t *testing.T) {
	tr := Build([][]string{{"a", "b"}, {"a", "c"}, {"d", "e", "f"}})

	a, _ := tr.Child("a")
	d, _ := tr.Child("d")
	b, _ := a.Child("b")

	if !a.IsLeafList() {
		t.Errorf("a should be a leaf list")
	}
	if d.IsLeafList() {
		t.Errorf("d should not be a leaf list")
	}
	if !b.IsLeaf() || !b.IsLeafList() {
		t.Errorf("b should be a leaf")
	}
	if tr.Len() != 2 || a.Len() != 2 {
		t.Errorf("unexpected sizes: root %d, a %d", tr.Len(), a.Len())
	}
}
