/*******************************************************************************
* File name: engine_test.go
*
* Description: round-trip, integrity, and repair correctness tests for the
* stripe engine.
*******************************************************************************/

package stripe

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, numBlocks int) *Engine {
	t.Helper()
	layout, err := NewLayout(t.TempDir(), "block", numBlocks)
	require.NoError(t, err)
	return NewEngine(layout)
}

func randomPayload(t *testing.T, size int) []byte {
	t.Helper()
	buf := make([]byte, size)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return buf
}

func TestCreateRetrieveRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 2, 5, 6, 7, 1024, 8192, 8193}
	for _, size := range sizes {
		for _, n := range []int{3, 4, 5} {
			e := newTestEngine(t, n)
			payload := randomPayload(t, size)

			_, err := e.Create("f.txt", payload, "text/plain")
			require.NoError(t, err)

			require.True(t, e.IsIntact("f.txt"))

			got, err := e.Retrieve("f.txt")
			require.NoError(t, err)
			require.Equal(t, payload, got)
		}
	}
}

func TestUpdateReplacesContent(t *testing.T) {
	e := newTestEngine(t, 4)
	first := randomPayload(t, 100)
	second := randomPayload(t, 250)

	_, err := e.Create("f.txt", first, "text/plain")
	require.NoError(t, err)

	_, err = e.Update("f.txt", second, "text/plain")
	require.NoError(t, err)

	got, err := e.Retrieve("f.txt")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	e := newTestEngine(t, 3)
	payload := randomPayload(t, 50)

	_, err := e.Create("f.txt", payload, "text/plain")
	require.NoError(t, err)

	require.NoError(t, e.Delete("f.txt"))
	require.NoError(t, e.Delete("f.txt"))
	require.False(t, e.IsIntact("f.txt"))
}

func TestCorruptedFragmentFailsIntegrityAndIsPurged(t *testing.T) {
	e := newTestEngine(t, 4)
	payload := randomPayload(t, 500)

	_, err := e.Create("f.txt", payload, "text/plain")
	require.NoError(t, err)

	frag := e.layout.fragmentPath(1, "f.txt")
	data, err := os.ReadFile(frag)
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(frag, data, 0644))

	require.False(t, e.IsIntact("f.txt"))
	require.False(t, e.IntegrityOrPurge("f.txt"))

	for i := 0; i < e.NumBlocks(); i++ {
		_, err := os.Stat(e.layout.fragmentPath(i, "f.txt"))
		require.True(t, os.IsNotExist(err))
	}
}

func TestMissingFragmentFailsIntegrity(t *testing.T) {
	e := newTestEngine(t, 3)
	payload := randomPayload(t, 300)

	_, err := e.Create("f.txt", payload, "text/plain")
	require.NoError(t, err)

	require.NoError(t, os.Remove(e.layout.fragmentPath(2, "f.txt")))
	require.False(t, e.IsIntact("f.txt"))
}

func TestRepairEachBlockInTurn(t *testing.T) {
	for n := 3; n <= 5; n++ {
		for lost := 0; lost < n; lost++ {
			e := newTestEngine(t, n)
			payload := randomPayload(t, 4096+3)

			_, err := e.Create("f.txt", payload, "text/plain")
			require.NoError(t, err)

			lostFragment := e.layout.fragmentPath(lost, "f.txt")
			lostMeta := e.layout.metaPath(lost, "f.txt")
			require.NoError(t, os.Remove(lostFragment))
			require.NoError(t, os.Remove(lostMeta))

			require.NoError(t, e.Repair(lost))

			require.True(t, e.IsIntact("f.txt"))

			got, err := e.Retrieve("f.txt")
			require.NoError(t, err)
			require.Equal(t, payload, got)
		}
	}
}

func TestRepairInvalidBlockID(t *testing.T) {
	e := newTestEngine(t, 3)
	require.ErrorIs(t, e.Repair(-1), ErrInvalidBlock)
	require.ErrorIs(t, e.Repair(3), ErrInvalidBlock)
}

func TestRepairRebuildsEveryFileInBlock(t *testing.T) {
	e := newTestEngine(t, 3)
	payloadA := randomPayload(t, 100)
	payloadB := randomPayload(t, 777)

	_, err := e.Create("a.txt", payloadA, "text/plain")
	require.NoError(t, err)
	_, err = e.Create("b.txt", payloadB, "text/plain")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(e.layout.blockPath(1)))
	require.NoError(t, os.MkdirAll(e.layout.blockPath(1), 0755))

	require.NoError(t, e.Repair(1))

	gotA, err := e.Retrieve("a.txt")
	require.NoError(t, err)
	require.Equal(t, payloadA, gotA)

	gotB, err := e.Retrieve("b.txt")
	require.NoError(t, err)
	require.Equal(t, payloadB, gotB)
}

func TestPartitionPadsLastSegments(t *testing.T) {
	// size=7, k=3: d=2, m=1 -> raw segments of 3,2,2 bytes; the last two
	// are padded with one 0x00 so all three are 3 bytes long.
	payload := []byte{1, 2, 3, 4, 5, 6, 7}
	segs := partition(payload, 3)
	require.Len(t, segs, 3)
	require.Equal(t, []byte{1, 2, 3}, segs[0])
	require.Equal(t, []byte{4, 5, 0x00}, segs[1])
	require.Equal(t, []byte{6, 7, 0x00}, segs[2])
}

func TestNewLayoutRejectsNarrowStripe(t *testing.T) {
	_, err := NewLayout(t.TempDir(), "block", 2)
	require.Error(t, err)
}

func TestLayoutCreatesBlockDirectories(t *testing.T) {
	root := t.TempDir()
	_, err := NewLayout(root, "block", 4)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		info, err := os.Stat(filepath.Join(root, "block-"+string(rune('0'+i))))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}
