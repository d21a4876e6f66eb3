package wallets

import "fmt"

// Store holds the ordered wallet list. Mutations run on the single UI
// event loop, so the store is not locked; persistence is delegated to
// the save hook so the store stays storage-agnostic.
type Store struct {
	entries []Wallet
	save    func([]Wallet)
}

// NewStore wraps an existing wallet list. save may be nil (tests).
func NewStore(entries []Wallet, save func([]Wallet)) *Store {
	s := &Store{save: save}
	s.entries = append(s.entries, entries...)
	return s
}

// All returns a copy of the list in display order
func (s *Store) All() []Wallet {
	out := make([]Wallet, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored wallets
func (s *Store) Len() int { return len(s.entries) }

// Get returns the wallet at position i
func (s *Store) Get(i int) (Wallet, bool) {
	if i < 0 || i >= len(s.entries) {
		return Wallet{}, false
	}
	return s.entries[i], true
}

// Upsert adds a wallet, or replaces an existing entry with the same
// (kind, lowercase address) key in place so its position is preserved.
func (s *Store) Upsert(w Wallet) {
	key := w.Key()
	for i, e := range s.entries {
		if e.Key() == key {
			s.entries[i] = w
			s.persist()
			return
		}
	}
	s.entries = append(s.entries, w)
	s.persist()
}

// Delete removes the wallet at position i
func (s *Store) Delete(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("wallet index %d out of range", i)
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.persist()
	return nil
}

// Move shifts the wallet at from to position to (drag reorder)
func (s *Store) Move(from, to int) error {
	if from < 0 || from >= len(s.entries) || to < 0 || to >= len(s.entries) {
		return fmt.Errorf("move %d -> %d out of range", from, to)
	}
	if from == to {
		return nil
	}
	w := s.entries[from]
	s.entries = append(s.entries[:from], s.entries[from+1:]...)
	rest := append([]Wallet{}, s.entries[to:]...)
	s.entries = append(append(s.entries[:to:to], w), rest...)
	s.persist()
	return nil
}

func (s *Store) persist() {
	if s.save != nil {
		s.save(s.All())
	}
}
