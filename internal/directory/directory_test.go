// Package directory_test tests the channel directory.
package directory_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/avolkov/genpost/internal/directory"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.json")
	d, err := directory.Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := d.All(); len(got) != 0 {
		t.Errorf("All() = %v, want empty", got)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := directory.Load(path, nil); err == nil {
		t.Fatal("Load() error = nil, want parse failure")
	}
}

func TestUpsertPersistsImmediately(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.json")
	d, err := directory.Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	d.Upsert("100", "Ann")
	d.Upsert("200", "Bob")
	d.Upsert("100", "Ann Renamed") // idempotent insert-or-update

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var onDisk map[string]string
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := map[string]string{"100": "Ann Renamed", "200": "Bob"}
	if len(onDisk) != len(want) {
		t.Fatalf("persisted entries = %v, want %v", onDisk, want)
	}
	for id, title := range want {
		if onDisk[id] != title {
			t.Errorf("persisted[%s] = %q, want %q", id, onDisk[id], title)
		}
	}
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.json")
	d, err := directory.Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	d.Upsert("100", "Ann")

	reloaded, err := directory.Load(path, nil)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if title, ok := reloaded.Title("100"); !ok || title != "Ann" {
		t.Errorf("reloaded entry = %q, %v; want Ann, true", title, ok)
	}
}

func TestAllReturnsSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.json")
	d, err := directory.Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	d.Upsert("100", "Ann")

	snapshot := d.All()
	snapshot["999"] = "intruder"

	if _, ok := d.Title("999"); ok {
		t.Error("mutating a snapshot leaked into the directory")
	}
}
