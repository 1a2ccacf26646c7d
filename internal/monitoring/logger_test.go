package monitoring

import (
	"fmt"
	"testing"
)

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() {
		Logf = original
		SetVerbose(false)
	})
	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func TestSetLogger(t *testing.T) {
	lines := captureLogs(t)

	Logf("hello %d", 1)
	if len(*lines) != 1 || (*lines)[0] != "hello 1" {
		t.Fatalf("custom logger got %v", *lines)
	}

	SetLogger(nil)
	Logf("muted")
	if len(*lines) != 1 {
		t.Errorf("no-op logger should not forward, got %v", *lines)
	}
}

func TestDebugf(t *testing.T) {
	lines := captureLogs(t)

	Debugf("hidden")
	if len(*lines) != 0 {
		t.Fatalf("Debugf logged while not verbose: %v", *lines)
	}

	SetVerbose(true)
	Debugf("shown %s", "now")
	if len(*lines) != 1 || (*lines)[0] != "shown now" {
		t.Errorf("Debugf verbose got %v", *lines)
	}
}

func TestComponent(t *testing.T) {
	lines := captureLogs(t)

	logf := Component("report")
	logf("built %d rails", 2)

	if len(*lines) != 1 || (*lines)[0] != "[report] built 2 rails" {
		t.Errorf("Component logger got %v", *lines)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}
