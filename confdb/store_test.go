package confdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func openTestStore(t *testing.T, userDir string, sysDirs ...string) *Store {
	t.Helper()
	s, err := Open(Config{UserDir: userDir, SystemDirs: sysDirs})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func writeContextFile(t *testing.T, dir, name string, records []Object) {
	t.Helper()
	data, err := yaml.Marshal(records)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestMissingContextStartsEmpty(t *testing.T) {
	s := openTestStore(t, t.TempDir())

	c, err := s.Context("bookmarks")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestContextIsCached(t *testing.T) {
	s := openTestStore(t, t.TempDir())

	a, _ := s.Context("recent")
	a.Append(MakeField("x"))

	b, _ := s.Context("recent")
	if b.Len() != 1 {
		t.Fatal("second lookup should return the same context")
	}
}

func TestUserFileShadowsSystem(t *testing.T) {
	userDir, sysDir := t.TempDir(), t.TempDir()
	writeContextFile(t, sysDir, "uiconfig", []Object{MakeField("system")})
	writeContextFile(t, userDir, "uiconfig", []Object{MakeField("user"), MakeField("extra")})

	s := openTestStore(t, userDir, sysDir)
	c, err := s.Context("uiconfig")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want the user file's 2 records", c.Len())
	}
	if rec, _ := c.At(0); rec.Value != "user" {
		t.Fatalf("record 0 = %q, want %q", rec.Value, "user")
	}
}

func TestSystemFallback(t *testing.T) {
	sysDir := t.TempDir()
	writeContextFile(t, sysDir, "locations", []Object{MakeField("a"), MakeField("b"), MakeField("c")})

	s := openTestStore(t, t.TempDir(), sysDir)
	c, err := s.Context("locations")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
}

func TestAppendPutRemove(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	c, _ := s.Context("bookmarks")

	for i, v := range []string{"a", "b", "c"} {
		if pos := c.Append(MakeField(v)); pos != i {
			t.Fatalf("Append(%q) = %d, want %d", v, pos, i)
		}
	}

	if err := c.Put(MakeField("B"), 1); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rec, _ := c.At(1); rec.Value != "B" {
		t.Fatalf("record 1 = %q after put", rec.Value)
	}

	if err := c.Put(MakeField("x"), 5); !errors.Is(err, ErrNoSuchEntry) {
		t.Fatalf("Put beyond end = %v, want ErrNoSuchEntry", err)
	}

	if err := c.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d after remove", c.Len())
	}
	// Later records shift down.
	if rec, _ := c.At(0); rec.Value != "B" {
		t.Fatalf("record 0 = %q after remove, want %q", rec.Value, "B")
	}
	if err := c.Remove(7); !errors.Is(err, ErrNoSuchEntry) {
		t.Fatalf("Remove beyond end = %v, want ErrNoSuchEntry", err)
	}
}

func TestAppendClonesRecord(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	c, _ := s.Context("palettes")

	o := NewObject("palette")
	o.Set("name", "Turbo")
	c.Append(o)
	o.Set("name", "Magma")

	if rec, _ := c.At(0); rec.Fields["name"] != "Turbo" {
		t.Fatal("append should not alias the caller's object")
	}
}

func TestFlushRoundTrip(t *testing.T) {
	userDir := t.TempDir()

	s := openTestStore(t, userDir)
	c, _ := s.Context("bookmarks")
	o := NewObject("bookmark")
	o.Set("name", "beacon")
	o.SetInt("frequency", 432500000)
	c.Append(o)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded, err := openTestStore(t, userDir).Context("bookmarks")
	if err != nil {
		t.Fatalf("Context after reload: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("Len = %d after reload, want 1", reloaded.Len())
	}
	rec, _ := reloaded.At(0)
	if rec.Class != "bookmark" {
		t.Fatalf("class = %q after reload", rec.Class)
	}
	if freq, err := rec.GetInt("frequency"); err != nil || freq != 432500000 {
		t.Fatalf("frequency = %d, %v after reload", freq, err)
	}
}

func TestFlushHonorsSave(t *testing.T) {
	userDir := t.TempDir()

	s := openTestStore(t, userDir)
	c, _ := s.Context("palettes")
	c.SetSave(false)
	c.Append(MakeField("x"))
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if _, err := os.Stat(filepath.Join(userDir, "palettes.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("save-disabled context was flushed: %v", err)
	}
}
