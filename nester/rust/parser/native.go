package parser

// nativeCrates are the crates shipped with the Rust toolchain.
var nativeCrates = map[string]bool{
	"std":        true,
	"core":       true,
	"alloc":      true,
	"proc_macro": true,
	"test":       true,
}

// IsNativeImport reports if the path imports from a crate of the Rust
// toolchain, with or without a leading `::`.
func IsNativeImport(p Path) bool {
	if len(p) > 1 && p[0] == "" {
		p = p[1:]
	}
	return len(p) > 0 && nativeCrates[p[0]]
}

// IsLocalImport reports if the path is relative to the current crate or
// module.
func IsLocalImport(p Path) bool {
	if len(p) == 0 {
		return false
	}
	switch p[0] {
	case "crate", "self", "super":
		return true
	}
	return false
}
