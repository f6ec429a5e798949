package content

import (
	"context"
	"io/fs"
	"os"
	"time"
)

// DirSource is a Source backed by the top level of a directory tree.
type DirSource struct {
	fsys fs.FS
	name string
}

// NewDirSource returns a source reading the files directly inside dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{fsys: os.DirFS(dir), name: dir}
}

// NewFSSource returns a source reading the root of fsys.
// name is only used for descriptions.
func NewFSSource(fsys fs.FS, name string) *DirSource {
	return &DirSource{fsys: fsys, name: name}
}

// List returns the regular files in the source root, sorted by name.
func (s *DirSource) List(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		items = append(items, &fileItem{fsys: s.fsys, entry: e})
	}
	return items, nil
}

// String returns the directory the source reads from.
func (s *DirSource) String() string {
	return s.name
}

type fileItem struct {
	fsys  fs.FS
	entry fs.DirEntry
}

func (f *fileItem) Name() string {
	return f.entry.Name()
}

func (f *fileItem) ReadRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(f.fsys, f.entry.Name())
}

func (f *fileItem) LastModified() (time.Time, error) {
	info, err := f.entry.Info()
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
