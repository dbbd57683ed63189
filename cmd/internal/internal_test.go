package internal

import (
	"path/filepath"
	"testing"
)

func TestUpdateInConfig(t *testing.T) {
	s, i, i64, f, b := "a", 1, int64(2), 3.0, false
	UpdateInConfig(&s, "")
	UpdateInConfig(&i, 0)
	UpdateInConfig(&i64, int64(0))
	UpdateInConfig(&f, 0.0)
	UpdateInConfig(&b, false)
	if s != "a" || i != 1 || i64 != 2 || f != 3 || b {
		t.Fatalf("zero values must not overwrite: %q %d %d %g %t", s, i, i64, f, b)
	}
	UpdateInConfig(&s, "b")
	UpdateInConfig(&i, 10)
	UpdateInConfig(&i64, int64(20))
	UpdateInConfig(&f, .5)
	UpdateInConfig(&b, true)
	if s != "b" || i != 10 || i64 != 20 || f != .5 || !b {
		t.Fatalf("bad values: %q %d %d %g %t", s, i, i64, f, b)
	}
}

func TestUpdateInConfigPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	var u uint
	UpdateInConfig(&u, uint(1))
}

func TestFlagsConfig(t *testing.T) {
	flags := Flags{Params: `{"data": "a.csv", "artifact": "m"}`, Artifact: "n.db"}
	c, err := flags.Config()
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if c.Data != "a.csv" || c.Artifact != "n.db" {
		t.Fatalf("bad config: data=%s artifact=%s", c.Data, c.Artifact)
	}
	if _, err := LoadArtifact(""); err == nil {
		t.Fatalf("expected an error")
	}
	if _, err := LoadArtifact(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Fatalf("expected an error")
	}
}
