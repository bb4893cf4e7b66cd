package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vidstats/internal/testsupport"
)

func TestExportMonthlyToStdout(t *testing.T) {
	env := setupCLITestEnv(t)
	st := testsupport.MustOpenStore(t, env.cfg)
	testsupport.MustVideo(t, st, 1, "Early", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	testsupport.MustVideo(t, st, 2, "Late", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	out, _, err := runCLI(t, []string{"export", "monthly", "--month", "2024-02", "-o", "-"}, env.configPath)
	if err != nil {
		t.Fatalf("export monthly: %v", err)
	}
	if !strings.HasPrefix(out, "\ufeffMonth,Video ID,Video title,Total Views\r\n") {
		t.Fatalf("expected BOM and header, got %q", out)
	}
	requireContains(t, out, "2024-02,1,Early,0")
	if strings.Contains(out, "Late") {
		t.Fatalf("filtered export should skip videos created later: %q", out)
	}

	out, _, err = runCLI(t, []string{"export", "monthly", "--month", "2024-02", "--all", "-o", "-"}, env.configPath)
	if err != nil {
		t.Fatalf("export monthly --all: %v", err)
	}
	requireContains(t, out, "2024-02,2,Late,0")
}

func TestExportMonthlyRangeWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	st := testsupport.MustOpenStore(t, env.cfg)
	testsupport.MustVideo(t, st, 3, "Range", time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC))

	target := filepath.Join(t.TempDir(), "range.csv")
	_, errOut, err := runCLI(t, []string{"export", "monthly", "--from", "2024-01", "--to", "2024-03", "--video", "3", "-o", target}, env.configPath)
	if err != nil {
		t.Fatalf("export range: %v", err)
	}
	requireContains(t, errOut, "Wrote "+target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if got := strings.Count(string(data), "\r\n"); got != 4 {
		t.Fatalf("expected header plus three months, got %d lines in %q", got, data)
	}
}

func TestExportMonthlyValidatesSelection(t *testing.T) {
	env := setupCLITestEnv(t)
	cases := [][]string{
		{"export", "monthly"},
		{"export", "monthly", "--month", "2024-13"},
		{"export", "monthly", "--from", "2024-05", "--to", "2024-01"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, append(args, "-o", "-"), env.configPath); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestExportJSONReindentsUpstreamDocument(t *testing.T) {
	fake := testsupport.NewFakeUpstream(t)
	fake.Raw("/video/9/export", http.StatusOK, `{"video":{"id":9}}`)
	fake.Raw("/video/10/export", http.StatusInternalServerError, `{}`)
	env := setupCLITestEnv(t, testsupport.WithUpstreamURL(fake.URL()))

	out, _, err := runCLI(t, []string{"export", "json", "9", "-o", "-"}, env.configPath)
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if out != "{\n  \"video\": {\n    \"id\": 9\n  }\n}\n" {
		t.Fatalf("unexpected document %q", out)
	}

	target := filepath.Join(t.TempDir(), "video.json")
	if _, _, err := runCLI(t, []string{"export", "json", "10", "-o", target}, env.configPath); err == nil {
		t.Fatal("expected upstream failure to surface")
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("expected no file after failure, stat err %v", err)
	}
}
