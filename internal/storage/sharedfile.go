package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyluth/standup/pkg/standup"
)

// ErrPickerCancelled is returned by a DirectoryPicker when the user backs out.
// It is a normal cancellation, not a failure.
var ErrPickerCancelled = errors.New("directory selection cancelled")

// DirectoryPicker chooses the directory holding the shared file.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context) (string, error)
}

// StaticPicker always picks the same directory. An empty value cancels.
type StaticPicker string

func (p StaticPicker) PickDirectory(context.Context) (string, error) {
	if p == "" {
		return "", ErrPickerCancelled
	}
	return string(p), nil
}

// PromptPicker asks for a directory on an interactive stream. An empty answer
// cancels.
type PromptPicker struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptPicker) PickDirectory(context.Context) (string, error) {
	fmt.Fprintf(p.Out, "Shared directory (empty to cancel): ")
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}
	dir := strings.TrimSpace(line)
	if dir == "" {
		return "", ErrPickerCancelled
	}
	return dir, nil
}

// SharedFile is the JSON document inside a connected directory.
type SharedFile struct {
	dir  string
	path string
}

// OpenSharedFile verifies read/write access to dir and opens, creating if
// needed, the shared file inside it.
func OpenSharedFile(dir string) (*SharedFile, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	path := filepath.Join(abs, standup.SharedFileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("read/write permission denied for %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", path, err)
	}

	return &SharedFile{dir: abs, path: path}, nil
}

// Dir is the connected directory.
func (f *SharedFile) Dir() string { return f.dir }

// Path is the full path of the shared file.
func (f *SharedFile) Path() string { return f.path }

// Name is the shared file's base name.
func (f *SharedFile) Name() string { return filepath.Base(f.path) }

// Read returns the file content and its modification time.
func (f *SharedFile) Read() ([]byte, time.Time, error) {
	// Stat before reading so a write racing the read surfaces as a newer
	// modification time on the next check.
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return data, info.ModTime(), nil
}

// ModTime returns the file's modification time.
func (f *SharedFile) ModTime() (time.Time, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	return info.ModTime(), nil
}

// Write replaces the file content and returns the new modification time.
// The content goes to a temporary file that is renamed over the original, so
// readers never observe a partial document. The original file's permissions
// are kept.
func (f *SharedFile) Write(data []byte) (time.Time, error) {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(f.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(f.dir, "."+standup.SharedFileName+".*")
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create temp file in %s: %w", f.dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return time.Time{}, fmt.Errorf("failed to set permissions on %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return time.Time{}, fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return time.Time{}, fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return time.Time{}, fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return f.ModTime()
}
