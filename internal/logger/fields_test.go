package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  stage  ", Value: "  parser  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "stage" || fields[0].String != "parser" {
		t.Fatalf("unexpected stage field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestStageAndItemFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	fields := append(StageFields("matcher", "task-1"), ItemFields(7, "cv.txt")...)
	WithFields(logger, fields...).Info("matched")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldStage] != "matcher" || ctx[FieldTask] != "task-1" || ctx[FieldFile] != "cv.txt" {
		t.Fatalf("unexpected context: %v", ctx)
	}
	if ctx[FieldCandidate] != uint64(7) {
		t.Fatalf("expected candidate id 7, got %v (%T)", ctx[FieldCandidate], ctx[FieldCandidate])
	}

	if got := ItemFields(0, "cv.txt"); len(got) != 1 {
		t.Fatalf("expected zero id to be omitted, got %d fields", len(got))
	}
}

func TestProviderFields(t *testing.T) {
	fields := ProviderFields("  gemini  ", "model-v1")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProvider || fields[0].String != "gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if fields[1].Key != FieldModel || fields[1].String != "model-v1" {
		t.Fatalf("unexpected model field: %+v", fields[1])
	}

	if empty := ProviderFields("", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}
