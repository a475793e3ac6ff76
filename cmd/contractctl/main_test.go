package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePDF(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func TestCleanupDeletesOldFiles(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "contract_1_20240101_000000_000000.pdf", 10*24*time.Hour)
	writePDF(t, dir, "contract_2_20240101_000000_000000.pdf", time.Hour)

	out, err := run(t, "cleanup", "--pdf-dir", dir, "--days", "7")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !strings.Contains(out, "deleted contract_1_") || !strings.Contains(out, "Deleted 1 PDF files older than 7 days, kept 1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "contract_2_20240101_000000_000000.pdf")); err != nil {
		t.Fatalf("recent file should remain: %v", err)
	}
}

func TestCleanupRejectsZeroDays(t *testing.T) {
	if _, err := run(t, "cleanup", "--pdf-dir", t.TempDir(), "--days", "0"); err == nil {
		t.Fatalf("expected error for --days 0")
	}
}

func TestPDFsListsByContract(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "contract_1_20240101_000000_000000.pdf", time.Hour)
	writePDF(t, dir, "contract_12_20240101_000000_000000.pdf", time.Hour)
	writePDF(t, dir, "custom.pdf", time.Hour)

	out, err := run(t, "pdfs", "--pdf-dir", dir)
	if err != nil {
		t.Fatalf("pdfs: %v", err)
	}
	if !strings.Contains(out, "3 files") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = run(t, "pdfs", "--pdf-dir", dir, "--contract", "1")
	if err != nil {
		t.Fatalf("pdfs: %v", err)
	}
	if !strings.Contains(out, "1 files") || strings.Contains(out, "contract_12_") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestInspectRejectsUnsafeName(t *testing.T) {
	if _, err := run(t, "inspect", "--pdf-dir", t.TempDir(), "../etc/passwd.pdf"); err == nil {
		t.Fatalf("expected error for traversal name")
	}
}

func TestEmailTestWithoutConfig(t *testing.T) {
	for _, key := range []string{"SMTP_SERVER", "SMTP_USERNAME", "SMTP_PASSWORD", "SENDER_EMAIL"} {
		t.Setenv(key, "")
	}
	out, err := run(t, "email-test")
	if err == nil {
		t.Fatalf("expected not configured error")
	}
	if !strings.Contains(out, "complete: false") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
