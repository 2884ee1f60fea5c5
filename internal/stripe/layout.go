/*******************************************************************************
* File name: layout.go
*
* Description: maps a logical filename to its N sibling on-disk block
* directories, and creates those directories on engine startup.
*******************************************************************************/

package stripe

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout owns the on-disk block-root configuration. No other component in
// this module reads or writes under these roots directly.
type Layout struct {
	numBlocks int
	blockDirs []string
}

// NewLayout builds the sibling block directories under root, named
// "<prefix>-<i>" for i in [0, numBlocks). root is resolved by the caller
// (internal/config picks /tmp in test mode, the configured upload path
// otherwise) before this constructor runs.
func NewLayout(root, prefix string, numBlocks int) (*Layout, error) {
	if numBlocks < 3 {
		return nil, fmt.Errorf("stripe: numBlocks must be >= 3 (need at least two data blocks and one parity block), got %d", numBlocks)
	}

	dirs := make([]string, numBlocks)
	for i := 0; i < numBlocks; i++ {
		dirs[i] = filepath.Join(root, fmt.Sprintf("%s-%d", prefix, i))
	}

	l := &Layout{numBlocks: numBlocks, blockDirs: dirs}
	if err := l.ensureBlocks(); err != nil {
		return nil, err
	}
	return l, nil
}

// NumBlocks returns N, the stripe width.
func (l *Layout) NumBlocks() int {
	return l.numBlocks
}

// blockPath returns the sibling directory for block i.
func (l *Layout) blockPath(i int) string {
	return l.blockDirs[i]
}

// BlockPath exposes blockPath to callers outside this package, e.g.
// internal/scrub, which needs a directory to list when sweeping.
func (l *Layout) BlockPath(i int) string {
	return l.blockPath(i)
}

// fragmentPath returns the on-disk path for filename's fragment in block i.
func (l *Layout) fragmentPath(i int, filename string) string {
	return filepath.Join(l.blockDirs[i], filename)
}

// metaPath returns the sidecar metadata path for filename within block i.
// The sidecar is replicated identically into every block directory, the
// same way every data/parity fragment is written to every block, so that
// losing any single block does not strand the metadata needed to strip
// padding on retrieve.
func (l *Layout) metaPath(i int, filename string) string {
	return filepath.Join(l.blockDirs[i], filename+".meta")
}

// ensureBlocks idempotently creates all N block directories, including any
// missing parent directories.
func (l *Layout) ensureBlocks() error {
	for _, dir := range l.blockDirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("stripe: creating block directory %q: %w", dir, err)
		}
	}
	return nil
}
