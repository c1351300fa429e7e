package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, f := range files {
		data, err := fs.ReadFile(FS, f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if !strings.Contains(string(data), "-- +goose Up") || !strings.Contains(string(data), "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", f)
		}
	}
}
