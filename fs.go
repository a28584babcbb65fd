package urp

import (
	"bytes"
	"compress/zlib"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	StateDir = ".urp"
	TrashDir = "trash"
)

var ErrOutsideRoot = errors.New("path escapes the project root")

func GetFileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func contentSHA256(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// PathResolver maps the relative paths of a response onto a project root
// and refuses anything that would land outside it.
type PathResolver struct {
	root string
}

func NewPathResolver(root string) (*PathResolver, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return &PathResolver{root: abs}, nil
}

func (r *PathResolver) Root() string { return r.root }

func (r *PathResolver) Resolve(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return "", fmt.Errorf("%s: %w", relativePath, ErrOutsideRoot)
	}
	abs := filepath.Join(r.root, filepath.FromSlash(relativePath))
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", relativePath, ErrOutsideRoot)
	}
	return abs, nil
}

// Rel turns an absolute path under the root back into a display path.
func (r *PathResolver) Rel(abs string) string {
	if rel, err := filepath.Rel(r.root, abs); err == nil {
		return filepath.ToSlash(rel)
	}
	return abs
}

// GetFileActionsAndDirs classifies every change as create, modify or
// unchanged, and collects the directories that must exist first.
func GetFileActionsAndDirs(changes []FileChange) (map[string]string, map[string]struct{}) {
	fileActions := make(map[string]string)
	dirsToCreate := make(map[string]struct{})

	for _, c := range changes {
		current, err := GetFileSHA256(c.Path)
		if errors.Is(err, os.ErrNotExist) {
			fileActions[c.Path] = "create"
			dir := filepath.Dir(c.Path)
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				dirsToCreate[dir] = struct{}{}
			}
			continue
		}
		if current == contentSHA256(renderContent(c.Content)) {
			fileActions[c.Path] = "unchanged"
			continue
		}
		fileActions[c.Path] = "modify"
	}
	return fileActions, dirsToCreate
}

func CreateDirs(dirs map[string]struct{}) error {
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory '%s': %w", dir, err)
		}
	}
	return nil
}

// TrashFile moves path under trashPath, keeping its position relative to
// root.
func TrashFile(path, trashPath, root string) error {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = filepath.Base(path)
	}

	destPath := filepath.Join(trashPath, relPath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	return os.Rename(path, destPath)
}

// WriteBlob stores a zlib-compressed copy of content under dir/blobs,
// named by hash.
func WriteBlob(dir, hash string, content []byte) error {
	blobDir := filepath.Join(dir, "blobs")
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return err
	}

	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(blobDir, hash), b.Bytes(), 0644)
}

func ReadBlob(dir, hash string) ([]byte, error) {
	if hash == "" {
		return []byte{}, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, "blobs", hash))
	if err != nil {
		return nil, err
	}

	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", hash, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
