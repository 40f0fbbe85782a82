package surface

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultID is the identifier of the stats container.
const DefaultID = "stats"

// Kind tells how the current content must be interpreted.
type Kind string

const (
	KindEmpty Kind = "empty"
	KindHTML  Kind = "html"
	KindText  Kind = "text"
)

// Surface is a single addressable container whose content is replaced wholesale.
type Surface interface {
	ID() string
	SetHTML(markup string) error
	SetText(text string) error
}

// Snapshot is a copy of a surface's content at a point in time.
type Snapshot struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
	Writes    uint64    `json:"writes"`
}

// Memory keeps the content in process. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

func NewMemory(id string) *Memory {
	return &Memory{
		snap: Snapshot{ID: id, Kind: KindEmpty},
		now:  time.Now,
	}
}

func (m *Memory) ID() string { return m.snap.ID }

func (m *Memory) SetHTML(markup string) error {
	m.set(KindHTML, markup)
	return nil
}

func (m *Memory) SetText(text string) error {
	m.set(KindText, text)
	return nil
}

func (m *Memory) set(kind Kind, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Kind = kind
	m.snap.Content = content
	m.snap.UpdatedAt = m.now()
	m.snap.Writes++
}

func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Writer writes every replacement to w, one per line.
type Writer struct {
	mu sync.Mutex
	id string
	w  io.Writer
}

func NewWriter(id string, w io.Writer) *Writer {
	return &Writer{id: id, w: w}
}

func (s *Writer) ID() string { return s.id }

func (s *Writer) SetHTML(markup string) error {
	return s.write(markup)
}

func (s *Writer) SetText(text string) error {
	return s.write(text)
}

func (s *Writer) write(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.w, content); err != nil {
		return fmt.Errorf("write surface %s: %w", s.id, err)
	}
	return nil
}
