package urp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBlobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := []byte("export const a = 1;\n")
	hash := contentSHA256(content)
	if err := WriteBlob(dir, hash, content); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	got, err := ReadBlob(dir, hash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("ReadBlob = %q, want %q", got, content)
	}

	if got, err := ReadBlob(dir, ""); err != nil || len(got) != 0 {
		t.Fatalf("ReadBlob(\"\") = %q, %v", got, err)
	}
	if _, err := ReadBlob(dir, "missing"); err == nil {
		t.Fatal("ReadBlob of a missing hash should fail")
	}
}

func TestGetFileSHA256MatchesContent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "hello\n")
	got, err := GetFileSHA256(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != contentSHA256([]byte("hello\n")) {
		t.Fatalf("GetFileSHA256 = %s", got)
	}
}

func TestTrashFileKeepsRelativePath(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/old.ts", "bye\n")
	trash := filepath.Join(root, StateDir, TrashDir)

	if err := TrashFile(path, trash, root); err != nil {
		t.Fatalf("TrashFile: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("original still present: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(trash, "src", "old.ts"))
	if err != nil || string(data) != "bye\n" {
		t.Fatalf("trashed file = %q, %v", data, err)
	}
}

func TestFileManagerApplyChanges(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(root)
	ok := filepath.Join(root, "a.ts")
	bad := filepath.Join(root, "missing-dir", "b.ts")

	var progress []int
	updated, failed := fm.ApplyChanges([]FileChange{
		{Path: ok, Content: []string{"x"}},
		{Path: bad, Content: []string{"y"}},
	}, func(n int) { progress = append(progress, n) })

	if len(updated) != 1 || updated[0] != ok {
		t.Fatalf("updated = %q", updated)
	}
	if len(failed) != 1 || failed[0] != bad {
		t.Fatalf("failed = %q", failed)
	}
	if len(progress) != 1 || progress[0] != 1 {
		t.Fatalf("progress = %v", progress)
	}
	if data, _ := os.ReadFile(ok); string(data) != "x\n" {
		t.Fatalf("a.ts = %q", data)
	}
}

func TestFileManagerBackup(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(root)
	path := writeFile(t, root, "a.ts", "v1\n")

	hash, err := fm.Backup(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadBlob(filepath.Join(root, StateDir), hash)
	if err != nil || string(got) != "v1\n" {
		t.Fatalf("backup = %q, %v", got, err)
	}

	if hash, err := fm.Backup(filepath.Join(root, "none.ts")); err != nil || hash != "" {
		t.Fatalf("Backup(missing) = %q, %v", hash, err)
	}
}
