package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/YuminosukeSato/gemprep/pkg/errors"
)

func TestTestLoggerLevels(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelInfo)

	testLogger.Debug("debug message")
	testLogger.Info("info message", "key1", "value1", "number", 42)
	testLogger.Warn("warning message")
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorEmptyData)

	if buffer.Len() == 0 {
		t.Fatal("Expected log output, got empty buffer")
	}
	if testLogger.ContainsMessage("debug message") {
		t.Error("Debug message should not appear when level is Info")
	}
	for _, msg := range []string{"info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "boom") {
		t.Error("Expected leading error to be recorded under the error key")
	}
}

func TestTestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	stageLogger := testLogger.With(StageKey, "ingestion", RunIDKey, "run-1")
	stageLogger.Info("Data Ingestion Starts", OperationKey, OperationSplit)

	if !testLogger.ContainsField(StageKey, "ingestion") {
		t.Error("stage context not found")
	}
	if !testLogger.ContainsField(RunIDKey, "run-1") {
		t.Error("run id context not found")
	}
	if !testLogger.ContainsField(OperationKey, OperationSplit) {
		t.Error("operation field not found")
	}
}

func TestTestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)
	ctx := context.Background()

	if testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Info should be disabled at Warn level")
	}
	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Error should be enabled at Warn level")
	}
}

func TestTestLoggerProvider(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLoggerWithName("transformation").Info("Pipeline Completed")

	if !strings.Contains(buffer.String(), "transformation") {
		t.Error("component name not found in named logger output")
	}
	if !provider.Logger().ContainsField(ComponentKey, "transformation") {
		t.Error("component key not set")
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("hidden")
	logger.With(StageKey, "transformation").Info("Preprocessor saved",
		PathKey, "artifacts/preprocessor.gob",
		SamplesKey, 7,
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["message"] != "Preprocessor saved" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry[StageKey] != "transformation" {
		t.Errorf("%s = %v", StageKey, entry[StageKey])
	}
	if entry[SamplesKey] != 7.0 {
		t.Errorf("%s = %v", SamplesKey, entry[SamplesKey])
	}
	if !logger.Enabled(context.Background(), LevelWarn) {
		t.Error("Warn should be enabled at Info level")
	}
	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("Debug should be disabled at Info level")
	}
}

func TestZerologLoggerErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := errors.NewPipelineError(errors.StageIngestion, errors.ErrEmptyData)
	logger.Error("Exception occurred at ingestion stage", err, StageKey, "ingestion")

	var entry map[string]interface{}
	if jerr := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); jerr != nil {
		t.Fatalf("invalid JSON: %v", jerr)
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v", entry["level"])
	}
	if !strings.Contains(fmt.Sprint(entry["error"]), "ingestion stage failed") {
		t.Errorf("error = %v", entry["error"])
	}
	if _, ok := entry[StacktraceAttrKey]; !ok {
		t.Error("expected stacktrace attribute")
	}
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	previous := Provider()
	defer func() {
		SetProvider(previous)
		errors.SetZerologWarnFunc(nil)
	}()

	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, "debug")

	errors.Warn(errors.NewUnknownCategoryWarning("cut", []string{"Excellent"}, -1))
	GetLoggerWithName("test").Info("after setup")
	slog.Error("slog record", ErrAttr(errors.New("slog failure")))

	out := buf.String()
	if !strings.Contains(out, "UnknownCategoryWarning") {
		t.Errorf("warning not routed to zerolog: %s", out)
	}
	if !strings.Contains(out, "after setup") {
		t.Errorf("global provider not replaced: %s", out)
	}
	if !strings.Contains(out, `"severity":"ERROR"`) {
		t.Errorf("slog default handler not installed: %s", out)
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		if got := ToLogLevel(tt.in); got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !ValidLevel(tt.in) {
			t.Errorf("ValidLevel(%q) = false", tt.in)
		}
	}

	if ValidLevel("verbose") {
		t.Error("ValidLevel(verbose) should be false")
	}
	defer func() {
		if recover() == nil {
			t.Error("ToLogLevel should panic on unknown level")
		}
	}()
	ToLogLevel("verbose")
}
