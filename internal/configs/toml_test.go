package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestSaveTOML(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "subdir", "test.toml")

	type TestStruct struct {
		Name   string `toml:"name"`
		Indent int    `toml:"indent"`
	}

	if err := SaveTOML(testFile, TestStruct{Name: "web", Indent: 4}); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("File was not created: %v", err)
	}
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("Expected config file to be private, got %o", info.Mode().Perm())
	}

	var loaded TestStruct
	if _, err := toml.DecodeFile(testFile, &loaded); err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if loaded.Name != "web" || loaded.Indent != 4 {
		t.Errorf("Unexpected round trip result: %+v", loaded)
	}
}
