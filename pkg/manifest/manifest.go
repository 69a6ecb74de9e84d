package manifest

import (
	"encoding/json"
	"sort"

	"github.com/arthur-debert/dotman/pkg/paths"
)

// DefaultProfile is the profile assigned to entries that do not name one.
const DefaultProfile = "common"

// Entry is the metadata kept for one tracked file.
// IsTemplate and IsSecret are carried for downstream tooling and are never
// interpreted here.
type Entry struct {
	Source     string `json:"source"`
	Profile    string `json:"profile"`
	IsTemplate bool   `json:"is_template"`
	IsSecret   bool   `json:"is_secret"`
}

// NewEntry returns the entry dotman creates when it starts tracking key.
func NewEntry(key string) Entry {
	return Entry{Source: key, Profile: DefaultProfile}
}

// UnmarshalJSON fills in defaults for fields the document leaves out.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	decoded := plain{Profile: DefaultProfile}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*e = Entry(decoded)
	return nil
}

// Manifest maps logical keys to entries.
type Manifest struct {
	entries map[string]Entry
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]Entry)}
}

// Add inserts or replaces the entry for key.
func (m *Manifest) Add(key string, entry Entry) error {
	if err := paths.ValidateKey(key); err != nil {
		return err
	}
	if entry.Source == "" {
		entry.Source = key
	}
	if err := paths.ValidateSource(entry.Source); err != nil {
		return err
	}
	if entry.Profile == "" {
		entry.Profile = DefaultProfile
	}
	m.entries[key] = entry
	return nil
}

// Remove deletes key and reports whether it was present.
func (m *Manifest) Remove(key string) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	return true
}

// Get returns the entry for key.
func (m *Manifest) Get(key string) (Entry, bool) {
	entry, ok := m.entries[key]
	return entry, ok
}

// Has reports whether key is tracked.
func (m *Manifest) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Len returns the number of tracked entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Keys returns a sorted snapshot of the tracked keys.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns a copy of the key to entry mapping.
func (m *Manifest) Entries() map[string]Entry {
	out := make(map[string]Entry, len(m.entries))
	for key, entry := range m.entries {
		out[key] = entry
	}
	return out
}

// Equal reports whether both manifests hold the same entries.
func (m *Manifest) Equal(other *Manifest) bool {
	if m.Len() != other.Len() {
		return false
	}
	for key, entry := range m.entries {
		if theirs, ok := other.entries[key]; !ok || theirs != entry {
			return false
		}
	}
	return true
}

// MarshalJSON writes the manifest as a flat object keyed by logical key.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.entries)
}

// UnmarshalJSON reads a flat object keyed by logical key. A JSON null decodes
// to an empty manifest.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.entries = make(map[string]Entry, len(raw))
	for key, entry := range raw {
		if entry.Source == "" {
			entry.Source = key
		}
		m.entries[key] = entry
	}
	return nil
}
