package story

// Flag capacity limits. Names couple events together, so the set stays
// small; the caps match the save payload budget.
const (
	MaxFlags       = 128
	MaxFlagNameLen = 64
)

// FlagStore is a named boolean set. Unknown names read as false.
// Setting is idempotent; flags are never cleared during a run.
type FlagStore struct {
	flags map[string]bool
	order []string
}

func NewFlagStore() *FlagStore {
	return &FlagStore{flags: make(map[string]bool)}
}

// Set records the flag as true. Returns false only if the store is full
// and the name is new, or the name is empty or over length.
func (f *FlagStore) Set(name string) bool {
	if name == "" || len(name) > MaxFlagNameLen {
		return false
	}
	if _, exists := f.flags[name]; exists {
		f.flags[name] = true
		return true
	}
	if len(f.flags) >= MaxFlags {
		return false
	}
	f.flags[name] = true
	f.order = append(f.order, name)
	return true
}

// Has reports whether the flag is set. Unknown names read as false.
func (f *FlagStore) Has(name string) bool {
	return f.flags[name]
}

// Names returns all stored flag names in insertion order.
func (f *FlagStore) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Count returns the number of stored flags.
func (f *FlagStore) Count() int {
	return len(f.flags)
}
