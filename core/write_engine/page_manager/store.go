package pagemanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BackingStore is a named, byte-oriented home for whole pages.
type BackingStore interface {
	// Open returns a reader over the named page.
	Open(name string) (io.ReadCloser, error)
	// Create truncates or creates the named page for writing.
	Create(name string) (io.WriteCloser, error)
}

// FileStore keeps each page in its own file. Relative names resolve under
// Dir; an empty Dir uses names as given.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (fs *FileStore) Path(name string) string {
	if fs.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(fs.Dir, name)
}

func (fs *FileStore) Open(name string) (io.ReadCloser, error) {
	return os.Open(fs.Path(name))
}

func (fs *FileStore) Create(name string) (io.WriteCloser, error) {
	file, err := os.OpenFile(fs.Path(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return syncOnClose{file}, nil
}

// syncOnClose flushes the file to stable storage before closing it.
type syncOnClose struct {
	*os.File
}

func (f syncOnClose) Close() error {
	if err := f.File.Sync(); err != nil {
		_ = f.File.Close()
		return err
	}
	return f.File.Close()
}

// LoadPage reads the named page from store. A store holding fewer than
// PageSize bytes is accepted and the remainder of the page stays zero.
func LoadPage(store BackingStore, name string) (*Page, error) {
	p, _, err := loadPage(store, name)
	return p, err
}

// LoadPageFile is LoadPage against a plain file path.
func LoadPageFile(path string) (*Page, error) {
	return LoadPage(&FileStore{}, path)
}

// loadPage also reports how many bytes the store actually held.
func loadPage(store BackingStore, name string) (*Page, int, error) {
	r, err := store.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrIoOpen, name, err)
	}
	defer r.Close()

	p := &Page{}
	n, err := io.ReadFull(r, p.data[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, n, fmt.Errorf("%w: %s: %w", ErrIoRead, name, err)
	}
	return p, n, nil
}

// Persist writes all PageSize bytes to the named page, replacing whatever
// the store held before.
func (p *Page) Persist(store BackingStore, name string) error {
	w, err := store.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIoCreate, name, err)
	}
	if _, err := w.Write(p.data[:]); err != nil {
		_ = w.Close()
		return fmt.Errorf("%w: %s: %w", ErrIoWrite, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIoWrite, name, err)
	}
	p.isDirty = false
	return nil
}

// PersistFile is Persist against a plain file path.
func (p *Page) PersistFile(path string) error {
	return p.Persist(&FileStore{}, path)
}
