package page

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/aretw0/guiapi/pkg/domain"
	"golang.org/x/net/html"
)

// ErrNotSortable is returned when a list is moved without an active binding,
// for example after its markup was replaced and sorting was not re-enabled.
var ErrNotSortable = errors.New("list is not sortable")

// Well-known sortable list containers.
const (
	ItemList       = "item-list"
	FocusPauseList = "focus-pause-list"
)

// SortEvent describes one completed drag-reorder inside a list.
type SortEvent struct {
	ListID   string
	ItemID   string // data-item-id of the moved element, may be empty
	OldIndex int
	NewIndex int
}

// SortBinding ties a list container (by element id) to the action it emits on update.
type SortBinding struct {
	ListID   string
	OnUpdate func(ctx context.Context, ev SortEvent) error
}

// Sorter attaches drag-reorder behavior to list containers in a Document.
type Sorter struct {
	doc      *Document
	bindings []SortBinding

	mu     sync.Mutex
	active map[string]*html.Node // list id -> container bound to
}

// NewSorter creates a Sorter for the given bindings.
func NewSorter(doc *Document, bindings ...SortBinding) *Sorter {
	return &Sorter{
		doc:      doc,
		bindings: bindings,
		active:   make(map[string]*html.Node),
	}
}

// Enable binds every configured list whose container is present in the
// document. A container that is already bound is left alone, so calling
// Enable repeatedly is safe. It returns the ids of the bound lists.
func (s *Sorter) Enable() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bindings {
		n := s.doc.node("#" + b.ListID)
		if n == nil {
			delete(s.active, b.ListID)
			continue
		}
		if s.active[b.ListID] == n {
			continue
		}
		s.active[b.ListID] = n
	}

	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Active reports whether listID is bound to the container currently in the document.
func (s *Sorter) Active(listID string) bool {
	s.mu.Lock()
	n, ok := s.active[listID]
	s.mu.Unlock()
	return ok && s.doc.attached(n)
}

// Move simulates dragging the element at oldIndex to newIndex inside listID.
// The element is moved in the document and the binding's OnUpdate is called,
// mirroring the drag library's onUpdate callback.
func (s *Sorter) Move(ctx context.Context, listID string, oldIndex, newIndex int) error {
	s.mu.Lock()
	container, ok := s.active[listID]
	var binding SortBinding
	for _, b := range s.bindings {
		if b.ListID == listID {
			binding = b
		}
	}
	s.mu.Unlock()

	if !ok || !s.doc.attached(container) {
		return fmt.Errorf("%w: %s", ErrNotSortable, listID)
	}

	moved, err := s.doc.move(container, oldIndex, newIndex)
	if err != nil {
		return fmt.Errorf("move in %s: %w", listID, err)
	}
	if oldIndex == newIndex || binding.OnUpdate == nil {
		return nil
	}

	return binding.OnUpdate(ctx, SortEvent{
		ListID:   listID,
		ItemID:   attr(moved, "data-item-id"),
		OldIndex: oldIndex,
		NewIndex: newIndex,
	})
}

// ActionSink submits an action produced by a page behavior.
type ActionSink func(ctx context.Context, action domain.Action) error

// DefaultBindings returns the item list and focus list bindings:
// item-list emits listSort{Item, Pos} with a 1-based position and
// focus-pause-list emits focusSort{Old, New}.
func DefaultBindings(sink ActionSink) []SortBinding {
	return []SortBinding{
		{
			ListID: ItemList,
			OnUpdate: func(ctx context.Context, ev SortEvent) error {
				item, err := strconv.Atoi(ev.ItemID)
				if err != nil {
					return fmt.Errorf("listSort: bad data-item-id %q: %w", ev.ItemID, err)
				}
				action, err := domain.NewAction("listSort", map[string]int{
					"Item": item,
					"Pos":  ev.NewIndex + 1,
				})
				if err != nil {
					return err
				}
				return sink(ctx, action)
			},
		},
		{
			ListID: FocusPauseList,
			OnUpdate: func(ctx context.Context, ev SortEvent) error {
				action, err := domain.NewAction("focusSort", map[string]int{
					"Old": ev.OldIndex,
					"New": ev.NewIndex,
				})
				if err != nil {
					return err
				}
				return sink(ctx, action)
			},
		},
	}
}
