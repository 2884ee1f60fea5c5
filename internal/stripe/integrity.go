/*******************************************************************************
* File name: integrity.go
*
* Description: the integrity gate that guards every read/write. A logical
* file is intact iff every fragment exists, all fragments share one length,
* and their byte-wise XOR is all-zero. Fragment reads fan out one goroutine
* per block, joined with errgroup.
*******************************************************************************/

package stripe

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
)

// IsIntact reports whether filename's stripe satisfies all invariants:
// every fragment (plus the metadata sidecar) exists as a regular file, all
// fragments share one byte length, and the XOR of all N fragments at every
// offset is zero.
func (e *Engine) IsIntact(filename string) bool {
	ok, _ := e.isIntact(filename)
	return ok
}

// IntegrityOrPurge checks IsIntact and, on failure, purges whatever
// fragments remain. After this call, either the file is known-good or no
// trace of it remains on disk.
func (e *Engine) IntegrityOrPurge(filename string) bool {
	ok, reason := e.isIntact(filename)
	if ok {
		return true
	}

	if reason != "" {
		e.logger.Warn("purging damaged stripe", slog.String("filename", filename), slog.String("reason", reason))
		e.metrics.IncPurge()
	}
	_ = e.Delete(filename)
	return false
}

func (e *Engine) isIntact(filename string) (bool, string) {
	n := e.layout.NumBlocks()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = e.layout.fragmentPath(i, filename)
	}

	// 1. existence: short-circuits on first absence.
	var size int64 = -1
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return false, "fragment missing"
		}
		if i == 0 {
			size = info.Size()
		} else if info.Size() != size {
			// 2. equal length: short-circuits on first mismatch.
			return false, "fragment size mismatch"
		}
	}

	if _, err := os.Stat(e.layout.metaPath(0, filename)); err != nil {
		return false, "metadata sidecar missing"
	}

	// 3. XOR across all N fragments must be zero everywhere.
	zero, err := e.xorIsZero(paths, size)
	if err != nil {
		return false, "read error during parity check"
	}
	if !zero {
		return false, "parity check failed"
	}

	return true, ""
}

// xorIsZero streams all N fragments in lockstep, chunkSize bytes at a time,
// reading each chunk from every fragment concurrently (one goroutine per
// block) and XORing locally. Returns false at the first non-zero XOR'd byte.
func (e *Engine) xorIsZero(paths []string, size int64) (bool, error) {
	files := make([]*os.File, len(paths))
	for i, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			for _, opened := range files[:i] {
				opened.Close()
			}
			return false, err
		}
		files[i] = f
	}
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	buf := make([][]byte, len(files))
	for i := range buf {
		buf[i] = make([]byte, chunkSize)
	}

	var offset int64
	for offset < size {
		want := int(min64(chunkSize, size-offset))

		g := new(errgroup.Group)
		for i, f := range files {
			i, f := i, f
			g.Go(func() error {
				_, err := f.ReadAt(buf[i][:want], offset)
				if err != nil && err != io.EOF {
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return false, err
		}

		acc := make([]byte, want)
		for i := range files {
			for j := 0; j < want; j++ {
				acc[j] ^= buf[i][j]
			}
		}
		if !verifyZero(acc) {
			return false, nil
		}

		offset += int64(want)
	}

	return true, nil
}

func min64(a int, b int64) int64 {
	if int64(a) < b {
		return int64(a)
	}
	return b
}
