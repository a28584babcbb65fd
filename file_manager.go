package urp

import (
	"os"
	"path/filepath"
)

// Applier writes file changes somewhere: straight to disk, or into editor
// buffers.
type Applier interface {
	ApplyChanges(changes []FileChange, progressCb func(int)) (updated, failed []string)
}

type FileManager struct {
	stateDir string
	root     string
}

func NewFileManager(root string) *FileManager {
	return &FileManager{root: root, stateDir: filepath.Join(root, StateDir)}
}

func (m *FileManager) ApplyChanges(changes []FileChange, progressCb func(int)) (updated, failed []string) {
	for i, change := range changes {
		if err := os.WriteFile(change.Path, renderContent(change.Content), 0644); err != nil {
			failed = append(failed, change.Path)
			continue
		}

		updated = append(updated, change.Path)
		if progressCb != nil {
			progressCb(i + 1)
		}
	}
	return updated, failed
}

// Backup stores the current content of path as a blob and returns its
// hash. A missing file has nothing to back up.
func (m *FileManager) Backup(path string) (string, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	hash := contentSHA256(content)
	return hash, WriteBlob(m.stateDir, hash, content)
}

// DeleteFiles moves paths into the trash directory under the state dir.
func (m *FileManager) DeleteFiles(paths []string) (deleted, failed []string) {
	trash := filepath.Join(m.stateDir, TrashDir)
	for _, p := range paths {
		if err := TrashFile(p, trash, m.root); err != nil {
			failed = append(failed, p)
			continue
		}
		deleted = append(deleted, p)
	}
	return deleted, failed
}
