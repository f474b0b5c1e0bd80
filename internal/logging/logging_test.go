package logging

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func fixedNow() time.Time { return time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC) }

func TestSetup_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	l, err := Setup(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Info("hidden")
	l.Warn("shown", "page", 3)
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "page=3") {
		t.Errorf("console output = %q", buf.String())
	}

	l.SetLevel("debug")
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel did not lower the console level")
	}
	if len(l.Files()) != 0 {
		t.Errorf("unexpected files: %v", l.Files())
	}
}

func TestSetup_Files(t *testing.T) {
	t.Run("info level writes info file only", func(t *testing.T) {
		dir := t.TempDir()
		l, err := Setup(Options{Level: "info", Console: &bytes.Buffer{}, Dir: dir, Now: fixedNow})
		if err != nil {
			t.Fatal(err)
		}
		l.Info("run started")
		l.Close()

		files := l.Files()
		if len(files) != 0 {
			t.Errorf("Files() after Close = %v", files)
		}
		data, err := os.ReadFile(dir + "/info_20250102_150405.log")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "run started") {
			t.Errorf("info file = %q", data)
		}
		if _, err := os.Stat(dir + "/debug_20250102_150405.log"); !os.IsNotExist(err) {
			t.Error("debug file should not exist at info level")
		}
	})

	t.Run("debug level adds debug file", func(t *testing.T) {
		dir := t.TempDir()
		var console bytes.Buffer
		l, err := Setup(Options{Level: "debug", Console: &console, Dir: dir, Now: fixedNow})
		if err != nil {
			t.Fatal(err)
		}
		if len(l.Files()) != 2 {
			t.Fatalf("expected 2 files, got %v", l.Files())
		}
		l.With("run_id", "abc").Debug("box read")
		l.Close()

		info, _ := os.ReadFile(dir + "/info_20250102_150405.log")
		debug, _ := os.ReadFile(dir + "/debug_20250102_150405.log")
		if strings.Contains(string(info), "box read") {
			t.Error("debug record leaked into info file")
		}
		if !strings.Contains(string(debug), "run_id=abc") {
			t.Errorf("debug file = %q", debug)
		}
		if !strings.Contains(console.String(), "box read") {
			t.Error("console should show debug records")
		}
	})
}
