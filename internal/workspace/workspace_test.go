package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateMakesUniqueDirs(t *testing.T) {
	base := t.TempDir()

	a, err := Create(base, "java")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := Create(base, "java")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if a.Root == b.Root {
		t.Errorf("expected unique workspace roots, both are %s", a.Root)
	}
	if !strings.HasPrefix(filepath.Base(a.Root), "java-") {
		t.Errorf("got workspace name %q, want java- prefix", filepath.Base(a.Root))
	}
}

func TestFilesSkipsBuildOutput(t *testing.T) {
	base := t.TempDir()
	ws, err := Create(base, "go")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mustWrite(t, ws.Path("go.mod"), "module sample")
	mustWrite(t, ws.Path("workflow.go"), "package sample")
	mustWrite(t, ws.Path("target/classes/Hello.class"), "binary")
	mustWrite(t, ws.Path("node_modules/x/index.js"), "junk")

	files, err := ws.Files()
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("got %d files %v, want 2", len(files), files)
	}
	for _, f := range files {
		if strings.Contains(f, "target") || strings.Contains(f, "node_modules") {
			t.Errorf("build output not skipped: %s", f)
		}
	}
}

func TestContainsAndRead(t *testing.T) {
	ws, err := Create(t.TempDir(), "python")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mustWrite(t, ws.Path("run_worker.py"), "print('hi')")

	if !ws.Contains("run_worker.py") {
		t.Error("expected run_worker.py to exist")
	}
	if ws.Contains("missing.py") {
		t.Error("expected missing.py to be absent")
	}

	data, err := ws.ReadFile("run_worker.py")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "print('hi')" {
		t.Errorf("got %q", data)
	}
}

func TestRemove(t *testing.T) {
	ws, err := Create(t.TempDir(), "go")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	mustWrite(t, ws.Path("go.mod"), "module sample")

	if err := ws.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Error("workspace still exists after Remove")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
