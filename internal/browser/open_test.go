package browser

import (
	"errors"
	"runtime"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs int
	}{
		{"darwin", "open", 1},
		{"linux", "xdg-open", 1},
		{"windows", "rundll32", 2},
	}
	for _, tc := range tests {
		t.Run(tc.goos, func(t *testing.T) {
			name, args, err := Command(tc.goos, "https://example.com")
			if err != nil {
				t.Fatalf("Command() error: %v", err)
			}
			if name != tc.wantName {
				t.Errorf("name = %q, want %q", name, tc.wantName)
			}
			if len(args) != tc.wantArgs || args[len(args)-1] != "https://example.com" {
				t.Errorf("args = %v", args)
			}
		})
	}

	if _, _, err := Command("plan9", "https://example.com"); err == nil {
		t.Error("expected error for unsupported OS")
	}
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	called := false
	orig := start
	start = func(string, ...string) error { called = true; return nil }
	t.Cleanup(func() { start = orig })

	for _, target := range []string{"file:///etc/passwd", "javascript:alert(1)", "projects/42"} {
		if err := Open(target); err == nil {
			t.Errorf("Open(%q) expected error", target)
		}
	}
	if called {
		t.Error("launcher ran for a rejected URL")
	}
}

func TestOpenLaunches(t *testing.T) {
	if _, _, err := Command(runtime.GOOS, "x"); err != nil {
		t.Skip("unsupported OS for launcher test")
	}
	var gotArgs []string
	orig := start
	start = func(_ string, args ...string) error { gotArgs = args; return nil }
	t.Cleanup(func() { start = orig })

	if err := Open("https://app.example.com/projects/42"); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if len(gotArgs) == 0 || gotArgs[len(gotArgs)-1] != "https://app.example.com/projects/42" {
		t.Errorf("launcher args = %v", gotArgs)
	}

	start = func(string, ...string) error { return errors.New("no display") }
	if err := Open("https://app.example.com"); err == nil {
		t.Error("expected launcher error to surface")
	}
}
