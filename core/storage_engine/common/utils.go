package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	pagemanager "github.com/sushant-115/slabdb/core/write_engine/page_manager"
	"golang.org/x/time/rate"
)

// chunkSize: size of each read/write chunk, also the limiter burst
const chunkSize = 1024

var (
	ErrInvalidPageFile  = errors.New("source is not a page file")
	ErrChecksumMismatch = errors.New("page copy checksum mismatch")
)

// CopyPageFile copies the page file at srcPath to dstPath, writing at most
// rateBytesPerSec bytes per second (no limit when <= 0). The source must be
// exactly one page long. It returns the SHA-256 of the copied bytes; with
// verify set the destination is read back and compared against it.
func CopyPageFile(ctx context.Context, srcPath, dstPath string, rateBytesPerSec int64, verify bool) ([]byte, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open src: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat src: %w", err)
	}
	if info.Size() != pagemanager.PageSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrInvalidPageFile, srcPath, info.Size(), pagemanager.PageSize)
	}

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open dst: %w", err)
	}
	defer dst.Close()

	var limiter *rate.Limiter
	if rateBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateBytesPerSec), chunkSize)
	}

	sum := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			// throttle: wait until enough tokens available for n bytes
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					return nil, fmt.Errorf("rate limiter error: %w", err)
				}
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return nil, fmt.Errorf("write error: %w", err)
			}
			sum.Write(buf[:n])
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read error: %w", rerr)
		}
	}

	// flush to disk
	if err := dst.Sync(); err != nil {
		return nil, fmt.Errorf("sync error: %w", err)
	}
	checksum := sum.Sum(nil)

	if verify {
		got, err := fileChecksum(dstPath)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(got, checksum) {
			return nil, fmt.Errorf("%w: %s: %x != %x", ErrChecksumMismatch, dstPath, got, checksum)
		}
	}
	return checksum, nil
}

func fileChecksum(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for verify: %w", err)
	}
	defer f.Close()

	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return nil, fmt.Errorf("read for verify: %w", err)
	}
	return sum.Sum(nil), nil
}
