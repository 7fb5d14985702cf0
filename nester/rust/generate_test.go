package nester

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aspect.build/usenest/nester/rust/rustconfig"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newRunner(root string, write bool) *Runner {
	return &Runner{
		Parser:  sharedParser,
		Configs: rustconfig.NewLoader(root),
		Write:   write,
	}
}

func collect(t *testing.T, r *Runner, args ...string) []string {
	t.Helper()
	set, err := r.CollectSourceFiles(args)
	if err != nil {
		t.Fatalf("CollectSourceFiles(%v) failed: %v", args, err)
	}
	var files []string
	for _, v := range set.Values() {
		rel, err := filepath.Rel(r.Configs.Root(), v.(string))
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, filepath.ToSlash(rel))
	}
	return files
}

func TestCollectSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.rs":               "fn main() {}\n",
		"src/lib.rs":                "",
		"src/util/mod.rs":           "",
		"src/notes.md":              "",
		"target/debug/build/out.rs": "",
		"gen/.usenest.yaml":         "exclude: [\"gen/**\"]\n",
		"gen/bindings.rs":           "",
	})
	r := newRunner(root, false)

	t.Run("directory", func(t *testing.T) {
		want := []string{"src/lib.rs", "src/main.rs", "src/util/mod.rs"}
		if diff := cmp.Diff(want, collect(t, r, root)); diff != "" {
			t.Errorf("unexpected diff (-want, +got):\n%s", diff)
		}
	})

	t.Run("glob", func(t *testing.T) {
		want := []string{"src/lib.rs", "src/main.rs"}
		if diff := cmp.Diff(want, collect(t, r, filepath.Join(root, "src", "*"))); diff != "" {
			t.Errorf("unexpected diff (-want, +got):\n%s", diff)
		}
	})

	t.Run("explicit files are never excluded", func(t *testing.T) {
		want := []string{"gen/bindings.rs", "target/debug/build/out.rs"}
		got := collect(t, r,
			filepath.Join(root, "target", "debug", "build", "out.rs"),
			filepath.Join(root, "gen", "bindings.rs"))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("unexpected diff (-want, +got):\n%s", diff)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, err := r.CollectSourceFiles([]string{filepath.Join(root, "nope", "*.rs")}); err == nil {
			t.Errorf("expected an error for a pattern without matches")
		}
	})
}

func formatAll(t *testing.T, r *Runner, args ...string) map[string]*FileResult {
	t.Helper()
	sources, err := r.CollectSourceFiles(args)
	if err != nil {
		t.Fatal(err)
	}
	results := map[string]*FileResult{}
	for result := range r.FormatFiles(context.Background(), sources) {
		rel, err := filepath.Rel(r.Configs.Root(), result.Path)
		if err != nil {
			t.Fatal(err)
		}
		results[filepath.ToSlash(rel)] = result
	}
	return results
}

func TestFormatFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.rs":                  "use std::io::Write;\nuse std::fs::File;\n",
		"done.rs":               "use std::env;\n",
		"compact/.usenest.yaml": "trailing_comma: false\n",
		"compact/b.rs":          "use x::{c, b};\n",
		"empty.rs":              "",
	})

	results := formatAll(t, newRunner(root, false), root)

	want := map[string]string{
		"a.rs":         "use std::{\n  fs::File,\n  io::Write,\n};\n",
		"done.rs":      "use std::env;\n",
		"compact/b.rs": "use x::{\n  b,\n  c\n};\n",
		"empty.rs":     "",
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for name, output := range want {
		result := results[name]
		if result == nil {
			t.Errorf("no result for %s", name)
			continue
		}
		if result.Err != nil {
			t.Errorf("%s: %v", name, result.Err)
			continue
		}
		if diff := cmp.Diff(output, string(result.Output)); diff != "" {
			t.Errorf("%s: unexpected diff (-want, +got):\n%s", name, diff)
		}
	}

	for name, changed := range map[string]bool{"a.rs": true, "done.rs": false, "compact/b.rs": true, "empty.rs": false} {
		if results[name] != nil && results[name].Changed != changed {
			t.Errorf("%s: Changed = %v, want %v", name, results[name].Changed, changed)
		}
	}

	// Nothing is written outside write mode.
	content, err := os.ReadFile(filepath.Join(root, "a.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "use std::io::Write;\nuse std::fs::File;\n" {
		t.Errorf("a.rs was modified: %q", content)
	}
}

func TestFormatFilesWrite(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.rs": "use b;\nuse a;\n\nfn main() {}\n",
		"src/lib.rs":  "use a;\n",
	})

	results := formatAll(t, newRunner(root, true), root)

	for name, changed := range map[string]bool{"src/main.rs": true, "src/lib.rs": false} {
		result := results[name]
		if result == nil {
			t.Fatalf("no result for %s", name)
		}
		if result.Err != nil {
			t.Fatalf("%s: %v", name, result.Err)
		}
		if result.Changed != changed {
			t.Errorf("%s: Changed = %v, want %v", name, result.Changed, changed)
		}
		if result.Output != nil {
			t.Errorf("%s: unexpected output in write mode", name)
		}
	}

	content, err := os.ReadFile(filepath.Join(root, "src", "main.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("use a;\nuse b;\n\nfn main() {}\n", string(content)); diff != "" {
		t.Errorf("unexpected diff (-want, +got):\n%s", diff)
	}
}

func TestFormatFilesReportsConfigErrors(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"bad/.usenest.yaml": "no_such_option: 1\n",
		"bad/x.rs":          "use a;\n",
	})

	results := formatAll(t, newRunner(root, false), filepath.Join(root, "bad", "x.rs"))
	if r := results["bad/x.rs"]; r == nil || r.Err == nil {
		t.Errorf("expected a configuration error, got %+v", r)
	}
}
