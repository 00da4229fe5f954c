package archive_test

import (
	"strings"
	"testing"

	"github.com/avid-platform/avid/pkg/archive"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := archive.Config{ConnectionString: "test-connection"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "papers" {
		t.Errorf("container_name: got %s, want papers", cfg.ContainerName)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_CONTAINER", "submissions")
	t.Setenv("TEST_CONN", "override-connection")

	env := &archive.Env{
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
	}

	cfg := archive.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.ContainerName != "submissions" {
		t.Errorf("container_name: got %s, want submissions", cfg.ContainerName)
	}
	if cfg.ConnectionString != "override-connection" {
		t.Errorf("connection_string: got %s, want override-connection", cfg.ConnectionString)
	}
}

func TestFinalizeValidation(t *testing.T) {
	t.Run("missing connection_string", func(t *testing.T) {
		cfg := archive.Config{ContainerName: "papers"}
		err := cfg.Finalize(nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "connection_string required") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("container defaulted when empty", func(t *testing.T) {
		cfg := archive.Config{ConnectionString: "conn"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestMerge(t *testing.T) {
	base := archive.Config{
		ContainerName:    "papers",
		ConnectionString: "base-conn",
	}

	overlay := archive.Config{ConnectionString: "overlay-conn"}
	base.Merge(&overlay)

	if base.ContainerName != "papers" {
		t.Errorf("container_name should remain papers, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
}
