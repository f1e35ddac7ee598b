package engine

import (
	"errors"

	"optionsbacktester/types"
)

var ErrPositionNotFound = errors.New("position not found in book")

// positionBook owns the live-position set during a run. Positions are keyed
// by their ULID so removal never depends on iteration indexes; insertion
// order is preserved for deterministic close passes.
type positionBook struct {
	byID  map[string]*types.OpenPosition
	order []string
}

func newPositionBook() *positionBook {
	return &positionBook{byID: make(map[string]*types.OpenPosition)}
}

func (b *positionBook) add(pos *types.OpenPosition) {
	pos.State = types.PositionStateOpen
	b.byID[pos.ID] = pos
	b.order = append(b.order, pos.ID)
}

func (b *positionBook) get(id string) (*types.OpenPosition, bool) {
	pos, ok := b.byID[id]
	return pos, ok
}

// remove transitions the position to CLOSED and drops it from the book.
func (b *positionBook) remove(id string) error {
	pos, ok := b.byID[id]
	if !ok {
		return ErrPositionNotFound
	}
	pos.State = types.PositionStateClosed
	delete(b.byID, id)
	for i, cur := range b.order {
		if cur == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// openIDs returns the live position IDs in open order. The returned slice is
// a copy so close passes can remove while iterating.
func (b *positionBook) openIDs() []string {
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}

func (b *positionBook) count() int {
	return len(b.byID)
}
