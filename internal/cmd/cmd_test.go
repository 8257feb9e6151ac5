package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeWorkload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write workload: %v", err)
	}
	return path
}

func TestLoadWorkload(t *testing.T) {
	path := writeWorkload(t, `
tasks:
  - id: fetch
    kind: sleep
    priority: 10
    payload:
      duration_ms: 5
  - id: report
    kind: echo
    depends_on: [fetch]
    max_retries: 1
    payload:
      message: done
`)

	specs, err := loadWorkload(path)
	if err != nil {
		t.Fatalf("loadWorkload() error = %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("len(specs) = %d, want 2", len(specs))
	}
	if specs[0].ID != "fetch" || specs[0].Priority != 10 {
		t.Errorf("specs[0] = %+v, want id=fetch priority=10", specs[0])
	}
	if len(specs[1].DependsOn) != 1 || specs[1].DependsOn[0] != "fetch" {
		t.Errorf("specs[1].DependsOn = %v, want [fetch]", specs[1].DependsOn)
	}
	if specs[1].MaxRetries == nil || *specs[1].MaxRetries != 1 {
		t.Errorf("specs[1].MaxRetries = %v, want 1", specs[1].MaxRetries)
	}
}

func TestLoadWorkloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "tasks: []\n"},
		{"missing id", "tasks:\n  - kind: echo\n"},
		{"missing kind", "tasks:\n  - id: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadWorkload(writeWorkload(t, tt.content)); err == nil {
				t.Error("loadWorkload() succeeded, want error")
			}
		})
	}
}

func TestRunCommandEndToEnd(t *testing.T) {
	path := writeWorkload(t, `
tasks:
  - id: fast
    kind: echo
    priority: 5
    payload:
      message: hello
  - id: slow
    kind: sleep
    payload:
      duration_ms: 5
  - id: after
    kind: echo
    depends_on: [fast, slow]
  - id: shaky
    kind: flaky
    max_retries: 2
    payload:
      fail_times: 2
`)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run command error = %v\noutput:\n%s", err, out.String())
	}

	got := out.String()
	if !strings.Contains(got, "4 completed, 0 failed, 0 cancelled") {
		t.Errorf("summary missing expected totals:\n%s", got)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(out.String(), "taskwell") {
		t.Errorf("version output = %q", out.String())
	}
}
