/*******************************************************************************
* File name: engine.go
*
* Description: the file engine - create/retrieve/update/delete of a logical
* file, built on the layout, codec, and integrity layers. A payload is
* split into K = N-1 padded data segments plus one parity segment; every
* fragment write or read fans out one goroutine per block.
*******************************************************************************/

package stripe

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
)

// Metrics is the narrow set of counters the engine emits for each
// operation and for purge and repair events. internal/metrics implements this over Prometheus; nil is
// replaced with a no-op implementation.
type Metrics interface {
	IncCreate()
	IncRetrieve()
	IncUpdate()
	IncDelete()
	IncPurge()
	IncRepair()
}

type noopMetrics struct{}

func (noopMetrics) IncCreate()   {}
func (noopMetrics) IncRetrieve() {}
func (noopMetrics) IncUpdate()   {}
func (noopMetrics) IncDelete()   {}
func (noopMetrics) IncPurge()    {}
func (noopMetrics) IncRepair()   {}

// Descriptor is the externally visible record of a stored file, returned
// from Create/Update and used to build the HTTP facade's JSON response.
// Content holds the payload decoded as UTF-8 text.
type Descriptor struct {
	Name        string `json:"name"`
	Size        int    `json:"size"`
	Checksum    string `json:"checksum"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// sidecar is the per-file metadata record that lets retrieve strip exactly
// the padding bytes create added, by recording the original payload size
// instead of guessing from a trailing 0x00.
type sidecar struct {
	Size        int    `json:"size"`
	Checksum    string `json:"checksum"`
	ContentType string `json:"content_type"`
}

// Engine is the striped-parity storage engine: the core of this module.
// One Engine owns exactly one set of block directories (see Layout) for the
// lifetime of the process.
type Engine struct {
	layout  *Layout
	logger  *slog.Logger
	metrics Metrics
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics overrides the default no-op metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds an Engine over the given layout. Block directories are
// created as part of NewLayout; the engine itself does not touch the
// filesystem until an operation is called.
func NewEngine(layout *Layout, opts ...Option) *Engine {
	e := &Engine{
		layout:  layout,
		logger:  slog.Default(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NumBlocks returns the stripe width N.
func (e *Engine) NumBlocks() int {
	return e.layout.NumBlocks()
}

// Create partitions payload into K = N-1 padded data segments, computes the
// parity segment, and writes all N fragments plus the metadata sidecar.
// Preconditions (filename non-empty, no existing intact stripe, size cap)
// are enforced by the request validator, not here.
func (e *Engine) Create(filename string, payload []byte, contentType string) (*Descriptor, error) {
	segs := partition(payload, e.layout.NumBlocks()-1)
	segs = append(segs, parity(segs))

	if err := e.writeStripe(filename, segs); err != nil {
		return nil, err
	}

	sum := md5.Sum(payload)
	meta := sidecar{Size: len(payload), Checksum: hex.EncodeToString(sum[:]), ContentType: contentType}
	if err := e.writeMeta(filename, meta); err != nil {
		return nil, err
	}

	e.metrics.IncCreate()
	return &Descriptor{
		Name:        filename,
		Size:        len(payload),
		Checksum:    meta.Checksum,
		Content:     string(payload),
		ContentType: contentType,
	}, nil
}

// Retrieve reads the K data fragments, strips the padding the write added
// (using the recorded original size, not content sniffing), and
// concatenates them in order. Callers must have already confirmed
// IntegrityOrPurge(filename).
func (e *Engine) Retrieve(filename string) ([]byte, error) {
	meta, err := e.readMeta(filename)
	if err != nil {
		return nil, fmt.Errorf("stripe: reading metadata for %q: %w", filename, err)
	}

	k := e.layout.NumBlocks() - 1
	_, m := divmod(meta.Size, k)

	segs := make([][]byte, k)
	g := new(errgroup.Group)
	for i := 0; i < k; i++ {
		i := i
		g.Go(func() error {
			b, err := os.ReadFile(e.layout.fragmentPath(i, filename))
			if err != nil {
				return err
			}
			// segments m..k-1 received exactly one padding byte at write
			// time; strip it back off here.
			if m > 0 && i >= m {
				b = b[:len(b)-1]
			}
			segs[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stripe: reading fragments for %q: %w", filename, err)
	}

	e.metrics.IncRetrieve()

	out := make([]byte, 0, meta.Size)
	for _, s := range segs {
		out = append(out, s...)
	}
	return out, nil
}

// Update replaces filename's stripe with payload. Not atomic: a crash
// between the delete and the create leaves no file, which the integrity
// gate reports as absent on next access. No rollback is attempted.
func (e *Engine) Update(filename string, payload []byte, contentType string) (*Descriptor, error) {
	if err := e.Delete(filename); err != nil {
		return nil, err
	}
	desc, err := e.Create(filename, payload, contentType)
	if err != nil {
		return nil, err
	}
	e.metrics.IncUpdate()
	return desc, nil
}

// Delete removes every fragment (and the metadata sidecar) for filename
// across all N blocks. Missing fragments are not an error; Delete returns
// an error only when removing an existing file fails.
func (e *Engine) Delete(filename string) error {
	n := e.layout.NumBlocks()
	for i := 0; i < n; i++ {
		p := e.layout.fragmentPath(i, filename)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			if err := os.Remove(p); err != nil {
				return fmt.Errorf("stripe: removing fragment %q: %w", p, err)
			}
		}
	}

	for i := 0; i < n; i++ {
		metaPath := e.layout.metaPath(i, filename)
		if info, err := os.Stat(metaPath); err == nil && !info.IsDir() {
			if err := os.Remove(metaPath); err != nil {
				return fmt.Errorf("stripe: removing metadata %q: %w", metaPath, err)
			}
		}
	}

	e.metrics.IncDelete()
	return nil
}

// partition splits payload into k contiguous data segments: the first
// m = len(payload) mod k segments carry d+1 bytes and the rest d bytes.
// Each of the remaining k-m segments is then padded with exactly one 0x00
// byte so that every segment reaches length ceil(len(payload)/k). When
// m == 0 no padding is added.
func partition(payload []byte, k int) [][]byte {
	d, m := divmod(len(payload), k)

	segs := make([][]byte, k)
	probe := 0
	for i := 0; i < k; i++ {
		size := d
		if i < m {
			size = d + 1
		}
		segs[i] = append([]byte(nil), payload[probe:probe+size]...)
		probe += size
	}

	// pad the shorter segments (indices m..k-1) up to the d+1 length of the
	// first m; with m == 0 every segment is already length d.
	if m > 0 {
		for i := m; i < k; i++ {
			segs[i] = append(segs[i], 0x00)
		}
	}

	return segs
}

// divmod returns the quotient and remainder of size/k, with the remainder
// in [0, k).
func divmod(size, k int) (int, int) {
	return size / k, size % k
}

// writeStripe writes each segment to its block's staging path and renames
// all of them into place only once every write succeeds, shrinking the
// window during which a crash could leave a partial stripe on disk. Writes
// fan out one goroutine per block.
func (e *Engine) writeStripe(filename string, segs [][]byte) error {
	n := len(segs)
	tmpPaths := make([]string, n)

	g := new(errgroup.Group)
	for i := 0; i < n; i++ {
		i := i
		tmpPaths[i] = e.layout.fragmentPath(i, filename) + tmpSuffix(i)
		g.Go(func() error {
			return os.WriteFile(tmpPaths[i], segs[i], 0644)
		})
	}
	if err := g.Wait(); err != nil {
		for _, p := range tmpPaths {
			os.Remove(p)
		}
		return fmt.Errorf("stripe: writing fragments for %q: %w", filename, err)
	}

	for i := 0; i < n; i++ {
		final := e.layout.fragmentPath(i, filename)
		if err := os.Rename(tmpPaths[i], final); err != nil {
			return fmt.Errorf("stripe: committing fragment %q: %w", final, err)
		}
	}
	return nil
}

// writeMeta replicates the sidecar identically into every block directory,
// so that losing any single block still leaves N-1 readable copies.
func (e *Engine) writeMeta(filename string, meta sidecar) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("stripe: encoding metadata for %q: %w", filename, err)
	}

	n := e.layout.NumBlocks()
	g := new(errgroup.Group)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			final := e.layout.metaPath(i, filename)
			tmp := final + ".tmp"
			if err := os.WriteFile(tmp, data, 0644); err != nil {
				return fmt.Errorf("stripe: writing metadata for %q: %w", filename, err)
			}
			if err := os.Rename(tmp, final); err != nil {
				return fmt.Errorf("stripe: committing metadata for %q: %w", filename, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// readMeta reads the sidecar from block 0. isIntact already requires block
// 0's fragment (and hence its directory) to exist before this is called.
func (e *Engine) readMeta(filename string) (sidecar, error) {
	data, err := os.ReadFile(e.layout.metaPath(0, filename))
	if err != nil {
		return sidecar{}, err
	}
	var m sidecar
	if err := json.Unmarshal(data, &m); err != nil {
		return sidecar{}, err
	}
	return m, nil
}

func tmpSuffix(i int) string {
	return fmt.Sprintf(".tmp-%d", i)
}
