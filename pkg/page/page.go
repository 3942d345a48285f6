package page

import (
	"time"

	"github.com/google/uuid"
)

// Page is the client-side state a GUI API session mutates: the document,
// the history stack and the sortable lists.
type Page struct {
	ID       string
	Document *Document
	History  *History
	Sorter   *Sorter
}

// New creates a page with a fresh session id from the given markup.
func New(markup string, bindings ...SortBinding) (*Page, error) {
	doc, err := NewDocument(markup)
	if err != nil {
		return nil, err
	}
	return &Page{
		ID:       uuid.NewString(),
		Document: doc,
		History:  &History{},
		Sorter:   NewSorter(doc, bindings...),
	}, nil
}

// Snapshot is the persistable form of a Page.
type Snapshot struct {
	ID        string         `json:"id"`
	HTML      string         `json:"html"`
	History   []HistoryEntry `json:"history,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot captures the current page state.
func (p *Page) Snapshot() (*Snapshot, error) {
	markup, err := p.Document.HTML()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:        p.ID,
		HTML:      markup,
		History:   p.History.Entries(),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Restore rebuilds a page from a snapshot. The returned page has no sortable
// lists bound; callers bind them with Sorter.Enable, as a fresh page load does.
func Restore(s *Snapshot, bindings ...SortBinding) (*Page, error) {
	doc, err := NewDocument(s.HTML)
	if err != nil {
		return nil, err
	}
	h := &History{}
	h.reset(s.History)

	id := s.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Page{
		ID:       id,
		Document: doc,
		History:  h,
		Sorter:   NewSorter(doc, bindings...),
	}, nil
}
