package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"aspect.build/usenest/nester/common/treesitter"
)

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.rs")
	source := "use std::{env, io::Write};\npub use self::inner::Api;\n\nfn main() {\n    use std::fmt;\n}\n"
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	a, err := analyzeFile(treesitter.NewParser(treesitter.Rust), path)
	require.NoError(t, err)
	require.Empty(t, a.ParseErrors)
	require.Equal(t, 1, a.NestedUses)

	var out bytes.Buffer
	a.write(&out)
	require.Equal(t, "== "+path+"\n"+
		"skipped (visibility modifier): pub use self::inner::Api;\n"+
		"nested use declarations (not normalized): 1\n"+
		"std::env (native)\n"+
		"std::io::Write (native)\n", out.String())
}
