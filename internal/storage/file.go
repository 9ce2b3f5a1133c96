package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// File stores each key as a file in a directory.
// Files are written with mode 0600 and the directory with 0700.
type File struct {
	dir string
}

// NewFile returns a File store rooted at dir. The directory is created lazily.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// Path returns the file backing key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key)
}

// Get implements Store.
func (f *File) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, &Error{Op: "get", Key: key, Err: err}
	}
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Op: "get", Key: key, Err: err}
	}
	return string(data), true, nil
}

// Set implements Store.
func (f *File) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	if err := os.WriteFile(f.Path(key), []byte(value), 0600); err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete implements Store.
func (f *File) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	err := os.Remove(f.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close implements Store.
func (f *File) Close() error { return nil }

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
