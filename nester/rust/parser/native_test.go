package parser

import (
	"testing"
)

func TestRustNative(t *testing.T) {
	testCases := []struct {
		path   Path
		native bool
		local  bool
	}{
		{Path{"std", "io"}, true, false},
		{Path{"core", "fmt"}, true, false},
		{Path{"alloc", "vec", "Vec"}, true, false},
		{Path{"", "std", "env"}, true, false},
		{Path{"serde", "Serialize"}, false, false},
		{Path{"stdx"}, false, false},
		{Path{"crate", "config"}, false, true},
		{Path{"super", "*"}, false, true},
		{Path{""}, false, false},
		{nil, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.path.String(), func(t *testing.T) {
			if got := IsNativeImport(tc.path); got != tc.native {
				t.Errorf("IsNativeImport(%q) got %v, want %v", tc.path, got, tc.native)
			}
			if got := IsLocalImport(tc.path); got != tc.local {
				t.Errorf("IsLocalImport(%q) got %v, want %v", tc.path, got, tc.local)
			}
		})
	}
}
