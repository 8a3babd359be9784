package catalog

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const filePerm fs.FileMode = 0o644

// FileStorage keeps the catalog as a tab-indented JSON array in one file.
// Saves write a sibling temp file and rename it over the target, keeping the
// target's permissions and writing through symlinks.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Path() string { return s.path }

func (s *FileStorage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fi, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return errors.Wrap(err, "stat catalog dir")
	}
	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *FileStorage) Load(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}

	var out []Product
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.path)
	}
	return out, nil
}

func (s *FileStorage) Save(ctx context.Context, products []Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if products == nil {
		products = []Product{}
	}

	data, err := json.MarshalIndent(products, "", "\t")
	if err != nil {
		return errors.Wrap(err, "encode catalog")
	}

	target, mode := s.target()
	dir, base := filepath.Split(target)
	tmp := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")

	if err := os.WriteFile(tmp, data, mode); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "write catalog file")
	}
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "chmod catalog file")
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "replace catalog file")
	}
	return nil
}

// target resolves symlinks so the rename replaces the real file, and keeps
// the permissions of an existing file.
func (s *FileStorage) target() (string, fs.FileMode) {
	path := s.path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	fi, err := os.Stat(path)
	if err != nil {
		return path, filePerm
	}
	return path, fi.Mode().Perm()
}
