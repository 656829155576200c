package common

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	pagemanager "github.com/sushant-115/slabdb/core/write_engine/page_manager"
)

func writeTestPage(t *testing.T, dir string) (string, []byte) {
	t.Helper()
	p := pagemanager.NewPage()
	require.NoError(t, p.AppendWrite([]byte("backup payload")))
	path := filepath.Join(dir, "src.page")
	require.NoError(t, p.PersistFile(path))
	return path, p.Bytes()
}

func TestCopyPageFile_Identical(t *testing.T) {
	dir := t.TempDir()
	src, raw := writeTestPage(t, dir)
	dst := filepath.Join(dir, "dst.page")

	checksum, err := CopyPageFile(context.Background(), src, dst, 0, true)
	require.NoError(t, err)

	want := sha256.Sum256(raw)
	require.Equal(t, want[:], checksum)

	copied, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, raw, copied)
}

func TestCopyPageFile_Throttled(t *testing.T) {
	dir := t.TempDir()
	src, raw := writeTestPage(t, dir)
	dst := filepath.Join(dir, "dst.page")

	// 4096 bytes at 8 KiB/s with a 1 KiB burst takes roughly 375ms.
	start := time.Now()
	_, err := CopyPageFile(context.Background(), src, dst, 8*1024, false)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)

	copied, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, raw, copied)
}

func TestCopyPageFile_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	src, _ := writeTestPage(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CopyPageFile(ctx, src, filepath.Join(dir, "dst.page"), 1024, false)
	require.Error(t, err)
}

func TestCopyPageFile_RejectsNonPageFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "short.page")
	require.NoError(t, os.WriteFile(src, []byte("too short"), 0644))

	_, err := CopyPageFile(context.Background(), src, filepath.Join(dir, "dst.page"), 0, false)
	require.ErrorIs(t, err, ErrInvalidPageFile)
}

func TestCopyPageFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := CopyPageFile(context.Background(), filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), 0, false)
	require.ErrorIs(t, err, os.ErrNotExist)
}
