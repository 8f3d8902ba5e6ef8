package clog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWithDefaults(t *testing.T) {
	logger, err := New(nil)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	logger.Info("hello", String("key", "value"))
}

func TestNewInvalidConfig(t *testing.T) {
	if _, err := New(&Config{Level: "verbose"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if _, err := New(&Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(&Config{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.Info("entry persisted", String("name", "Shard-A"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "entry persisted") {
		t.Fatalf("log file missing message: %s", data)
	}
	if !strings.Contains(string(data), "Shard-A") {
		t.Fatalf("log file missing field: %s", data)
	}
}

func TestNamespaceChaining(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ns.log")
	logger, err := New(&Config{Level: "info", Format: "json", Output: path},
		WithNamespace("tenantdb"))
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	child := logger.WithNamespace("shardstore", "file")
	child.Info("loaded")

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "tenantdb.shardstore.file") {
		t.Fatalf("expected chained namespace, got: %s", data)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lvl.log")
	logger, err := New(&Config{Level: "warn", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should appear")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "should be dropped") {
		t.Fatal("info message leaked past warn level")
	}
	if !strings.Contains(string(data), "should appear") {
		t.Fatal("warn message missing")
	}

	// 动态降级后 info 可见
	if err := logger.SetLevel(DebugLevel); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	logger.Info("now visible")
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "now visible") {
		t.Fatal("info message missing after SetLevel")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("nothing happens")
	if logger.With(String("k", "v")) != logger {
		t.Fatal("noop With should return the same instance")
	}
}
