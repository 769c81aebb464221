package workspace

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/reg-trainer/internal/scene"
)

// #region errors
var (
	// ErrDuplicateWorkspace indicates two workspaces share an identifier.
	ErrDuplicateWorkspace = errors.New("workspace: duplicate workspace id")
	// ErrMissingField indicates a required attribute or child element is absent.
	ErrMissingField = errors.New("workspace: missing field")
	// ErrMalformedValue indicates a feature value could not be parsed.
	ErrMalformedValue = errors.New("workspace: malformed value")
	// ErrNoKeyObject indicates a workspace has no item tagged KEY.
	ErrNoKeyObject = errors.New("workspace: no KEY item")
)

// #endregion errors

// #region entry
// Entry is one workspace scene: the object being described and every object
// visible in the scene, the key object included.
type Entry struct {
	ID      string
	Key     scene.Object
	Context scene.Context
}

// #endregion entry

// #region store
// Store maps workspace ids to entries and remembers insertion order, which is
// the order the corpus aggregation walks. A new round starts from a new Store.
type Store struct {
	entries []Entry
	index   map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Add appends e. Ids must be unique within a store.
func (s *Store) Add(e Entry) error {
	if _, ok := s.index[e.ID]; ok {
		return fmt.Errorf("add %q: %w", e.ID, ErrDuplicateWorkspace)
	}
	s.index[e.ID] = len(s.entries)
	s.entries = append(s.entries, e)
	return nil
}

// Get looks up a workspace by id.
func (s *Store) Get(id string) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the number of workspaces.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns the workspaces in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns workspace ids in insertion order.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.ID
	}
	return ids
}

// #endregion store
