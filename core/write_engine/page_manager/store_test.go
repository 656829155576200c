package pagemanager

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// faultyStore fails at a chosen stage of I/O.
type faultyStore struct {
	openErr, readErr, createErr, writeErr, closeErr error
}

type faultyReader struct{ err error }

func (r faultyReader) Read([]byte) (int, error) { return 0, r.err }
func (r faultyReader) Close() error             { return nil }

type faultyWriter struct{ writeErr, closeErr error }

func (w faultyWriter) Write(b []byte) (int, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	return len(b), nil
}
func (w faultyWriter) Close() error { return w.closeErr }

func (s faultyStore) Open(string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return faultyReader{s.readErr}, nil
}

func (s faultyStore) Create(string) (io.WriteCloser, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return faultyWriter{s.writeErr, s.closeErr}, nil
}

func TestPersistLoad_RoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	p := NewPage()
	require.NoError(t, p.AppendWrite([]byte("persist me")))
	require.NoError(t, p.AppendWrite([]byte{0, 1, 2, 3}))

	require.NoError(t, p.Persist(store, "page.db"))
	require.False(t, p.IsDirty())

	info, err := os.Stat(store.Path("page.db"))
	require.NoError(t, err)
	require.Equal(t, int64(PageSize), info.Size())

	loaded, err := LoadPage(store, "page.db")
	require.NoError(t, err)
	require.Equal(t, p.Bytes(), loaded.Bytes())
	require.Equal(t, p.Tip(), loaded.Tip())
	require.False(t, loaded.IsDirty())
}

func TestPersist_OverwritesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.db")
	require.NoError(t, os.WriteFile(path, make([]byte, 3*PageSize), 0644))

	p := NewPage()
	require.NoError(t, p.PersistFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, p.Bytes(), raw)
}

func TestLoadPageFile_ShortFileIsZeroFilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.db")
	require.NoError(t, os.WriteFile(path, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0x01, 0x10, 0xee}, 0644))

	p, err := LoadPageFile(path)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0110), p.Tip(), "tip is taken as persisted, not recomputed")
	require.Equal(t, byte(0xee), p.ReadByteAt(6))
	require.Equal(t, make([]byte, PageSize-7), p.Bytes()[7:])
}

func TestLoadPageFile_EmptyFileRejectsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	p, err := LoadPageFile(path)
	require.NoError(t, err)
	require.Equal(t, uint16(0), p.Tip())
	require.ErrorIs(t, p.AppendWrite([]byte{0x09, 0x05, 'h', 'e', 'l', 'l', 'o'}), ErrCorruptedTip)
	require.Equal(t, make([]byte, PageSize), p.Bytes())
}

func TestLoadPageFile_IgnoresBytesBeyondPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.db")
	raw := make([]byte, PageSize+10)
	raw[PageSize-1] = 0x77
	raw[PageSize] = 0x99
	require.NoError(t, os.WriteFile(path, raw, 0644))

	p, err := LoadPageFile(path)
	require.NoError(t, err)
	require.Equal(t, raw[:PageSize], p.Bytes())
}

func TestLoadPage_OpenError(t *testing.T) {
	_, err := LoadPage(NewFileStore(t.TempDir()), "missing.db")
	require.ErrorIs(t, err, ErrIoOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPage_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := LoadPage(faultyStore{readErr: boom}, "page")
	require.ErrorIs(t, err, ErrIoRead)
	require.ErrorIs(t, err, boom)
}

func TestPersist_CreateError(t *testing.T) {
	p := NewPage()
	err := p.PersistFile(filepath.Join(t.TempDir(), "no", "such", "dir", "page.db"))
	require.ErrorIs(t, err, ErrIoCreate)
	require.True(t, p.IsDirty(), "a failed persist keeps the page dirty")
}

func TestPersist_WriteErrors(t *testing.T) {
	boom := errors.New("short write")
	require.ErrorIs(t, NewPage().Persist(faultyStore{writeErr: boom}, "page"), ErrIoWrite)
	require.ErrorIs(t, NewPage().Persist(faultyStore{closeErr: boom}, "page"), ErrIoWrite)
	require.ErrorIs(t, NewPage().Persist(faultyStore{createErr: boom}, "page"), ErrIoCreate)
}

func TestFileStore_Path(t *testing.T) {
	require.Equal(t, "page.db", (&FileStore{}).Path("page.db"))
	require.Equal(t, filepath.Join("data", "page.db"), NewFileStore("data").Path("page.db"))
	abs := filepath.Join(string(filepath.Separator), "tmp", "page.db")
	require.Equal(t, abs, NewFileStore("data").Path(abs))
}
