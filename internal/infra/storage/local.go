package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type LocalDisk struct {
	root    string
	baseURL string
}

func NewLocalDisk(root, baseURL string) *LocalDisk {
	return &LocalDisk{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Rootは静的配信に使う
func (d *LocalDisk) Root() string { return d.root }

func (d *LocalDisk) full(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", errors.Errorf("storage/local: invalid path %q", path)
	}
	return filepath.Join(d.root, clean), nil
}

func (d *LocalDisk) Put(ctx context.Context, path string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := d.full(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.Wrap(err, "storage/local: mkdir")
	}

	f, err := os.Create(full)
	if err != nil {
		return errors.Wrapf(err, "storage/local: create %s", path)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return errors.Wrapf(err, "storage/local: write %s", path)
	}
	return errors.Wrap(f.Close(), "storage/local: close")
}

func (d *LocalDisk) Delete(_ context.Context, path string) error {
	full, err := d.full(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "storage/local: delete %s", path)
	}
	return nil
}

func (d *LocalDisk) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(path, "/")
}
