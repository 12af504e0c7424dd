package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKey(t *testing.T) {
	if got := Key("task-1", "cv.txt"); got != "task-1/cv.txt" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCleanKey(t *testing.T) {
	tests := map[string]string{
		"task/cv.txt":         "task/cv.txt",
		"/task/cv.txt":        "task/cv.txt",
		"task/../../etc/pass": "etc/pass",
		" task/./cv.txt ":     "task/cv.txt",
	}
	for in, expect := range tests {
		got, err := cleanKey(in)
		if err != nil || got != expect {
			t.Fatalf("cleanKey(%q) = %q, %v; want %q", in, got, err, expect)
		}
	}

	for _, bad := range []string{"", "  ", "/", ".."} {
		if _, err := cleanKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFSRoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := NewFS(root)
	if err != nil {
		t.Fatalf("new fs: %v", err)
	}

	ctx := context.Background()
	ref, err := s.Put(ctx, Key("task-1", "cv.txt"), []byte("resume text"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "task-1", "cv.txt")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	data, err := s.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "resume text" {
		t.Fatalf("unexpected content %q", data)
	}

	if _, err := s.Get(ctx, "task-1/missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFSHonoursCancellation(t *testing.T) {
	s, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("new fs: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Put(ctx, "k", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewMinioValidation(t *testing.T) {
	if _, err := NewMinio(WithEndpoint("localhost:9000")); err == nil {
		t.Fatal("expected error without bucket")
	}

	s, err := NewMinio(
		WithEndpoint("localhost:9000"),
		WithBucket("resumes"),
		WithAccessKey("access"),
		WithSecretKey("secret"),
		WithSSL(true),
	)
	if err != nil {
		t.Fatalf("new minio: %v", err)
	}
	if s.cfg.bucket != "resumes" || !s.cfg.useSSL || s.Type() != "minio" {
		t.Fatalf("unexpected config: %+v", s.cfg)
	}
}
