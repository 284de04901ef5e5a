package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestCanceledContextIsDone(t *testing.T) {
	ctx := CanceledContext()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected canceled context")
	}
}

func TestWriteAndReadHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ".presetenvrc.yml")

	MustWriteFile(t, path, "preset:\n  loose: true\n")
	if got := MustReadFile(t, path); got != "preset:\n  loose: true\n" {
		t.Fatalf("unexpected content: %q", got)
	}

	tempPath := WriteTempFile(t, "index.js", "x")
	if info, err := os.Stat(tempPath); err != nil {
		t.Fatalf("stat temp file: %v", err)
	} else if got := info.Mode().Perm(); got != 0o644 {
		t.Fatalf("expected 0644, got %o", got)
	}
}

func TestFatalPathsViaHelperProcess(t *testing.T) {
	t.Parallel()
	for _, tc := range []string{
		"mkdir-failure",
		"write-failure",
		"read-failure",
	} {
		t.Run(tc, func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=TestHelperFatalPath", "--", tc)
			cmd.Env = append(os.Environ(), "TESTUTIL_FATAL_HELPER=1")
			err := cmd.Run()
			if err == nil {
				t.Fatalf("expected helper to fail for scenario %s", tc)
			}
			if _, ok := err.(*exec.ExitError); !ok {
				t.Fatalf("expected ExitError, got %T: %v", err, err)
			}
		})
	}
}

func TestHelperFatalPath(t *testing.T) {
	if os.Getenv("TESTUTIL_FATAL_HELPER") != "1" {
		return
	}
	scenario := os.Args[len(os.Args)-1]

	switch scenario {
	case "mkdir-failure":
		dir := t.TempDir()
		parentFile := filepath.Join(dir, "parent")
		if err := os.WriteFile(parentFile, []byte("x"), 0o600); err != nil {
			t.Fatalf("setup parent file: %v", err)
		}
		MustWriteFileMode(t, filepath.Join(parentFile, "child.js"), "x", 0o600)
	case "write-failure":
		MustWriteFileMode(t, t.TempDir(), "x", 0o600)
	case "read-failure":
		_ = MustReadFile(t, filepath.Join(t.TempDir(), "missing.js"))
	default:
		t.Fatalf("unknown helper scenario %q", scenario)
	}
}
