package surface

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReplacesContentWholesale(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	m := NewMemory(DefaultID)
	m.now = func() time.Time { return now }

	assert.Equal(t, Snapshot{ID: "stats", Kind: KindEmpty}, m.Snapshot())

	require.NoError(t, m.SetHTML("<h3>Produits</h3>"))
	assert.Equal(t, Snapshot{ID: "stats", Kind: KindHTML, Content: "<h3>Produits</h3>", UpdatedAt: now, Writes: 1}, m.Snapshot())

	require.NoError(t, m.SetText("Erreur: boom"))
	snap := m.Snapshot()
	assert.Equal(t, KindText, snap.Kind)
	assert.Equal(t, "Erreur: boom", snap.Content)
	assert.Equal(t, uint64(2), snap.Writes)
}

func TestMemoryConcurrentWrites(t *testing.T) {
	m := NewMemory(DefaultID)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.SetHTML("x")
			_ = m.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), m.Snapshot().Writes)
}

func TestWriterWritesEachReplacement(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter("stats", &buf)

	require.NoError(t, w.SetHTML("<h3>Produits</h3>"))
	require.NoError(t, w.SetText("Erreur: boom"))

	assert.Equal(t, "stats", w.ID())
	assert.Equal(t, "<h3>Produits</h3>\nErreur: boom\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterPropagatesWriteErrors(t *testing.T) {
	w := NewWriter("stats", failingWriter{})
	err := w.SetText("x")
	assert.ErrorContains(t, err, "disk full")
}
