package domain

import "sort"

// Ledger is the append-only ordered collection of movement records.
// Insertion order is canonical; no update or delete is exposed.
type Ledger struct {
	movements []*Movement
}

// NewLedger builds a ledger from previously recorded movements,
// preserving their order.
func NewLedger(movements []*Movement) *Ledger {
	l := &Ledger{movements: make([]*Movement, len(movements))}
	copy(l.movements, movements)
	return l
}

// Append records one movement.
func (l *Ledger) Append(m *Movement) {
	l.movements = append(l.movements, m)
}

// Len returns the number of recorded movements.
func (l *Ledger) Len() int {
	return len(l.movements)
}

// All returns the movements in insertion order. The slice is a copy; the
// records themselves are shared and must not be mutated.
func (l *Ledger) All() []*Movement {
	out := make([]*Movement, len(l.movements))
	copy(out, l.movements)
	return out
}

// ByDateDesc returns the movements ordered by date descending for
// display. The sort is stable: movements sharing a date keep their
// insertion order.
func (l *Ledger) ByDateDesc() []*Movement {
	out := l.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
