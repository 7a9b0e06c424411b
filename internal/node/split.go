package node

import (
	"github.com/connormullett/btreekv/internal/datapage"
	"github.com/connormullett/btreekv/internal/pager"
)

// Split splits the receiver at parameter b, leaving the [0, b-1] entries in
// place and moving the [b, 2b-1] entries to a freshly returned sibling. It
// returns the median key promoted to the parent and the sibling node.
//
// For a Leaf, the backing data page is split too: the left half overwrites
// the existing data page offset in place, the right half is appended at a
// fresh offset, and the sibling's value indices are renumbered to start at
// zero.
func (n *Node) Split(b int, pgr *pager.Pager) ([]byte, *Node, error) {
	switch n.Kind {
	case KindInternal:
		siblingKeys := append([][]byte{}, n.Keys[b-1:]...)
		medianKey := siblingKeys[0]
		siblingKeys = siblingKeys[1:]

		siblingChildren := append([]uint64{}, n.Children[b:]...)

		n.Keys = n.Keys[:b-1]
		n.Children = n.Children[:b]

		sibling := NewInternal(siblingChildren, siblingKeys, false, n.ParentOffset)
		return medianKey, sibling, nil

	case KindLeaf:
		siblingPairs := append([]Pair{}, n.Pairs[b:]...)
		medianKey := append([]byte{}, n.Pairs[b-1].Key...)
		n.Pairs = n.Pairs[:b]

		raw, err := pgr.GetPage(int64(n.DataPageOffset))
		if err != nil {
			return nil, nil, err
		}
		dp, err := datapage.Decode(raw)
		if err != nil {
			return nil, nil, err
		}
		// Values sit in insertion order; rewrite them in key order first so
		// that splitting the page at b matches the split of the pairs.
		ordered := datapage.New(pgr.PageSize())
		for _, half := range [][]Pair{n.Pairs, siblingPairs} {
			for i := range half {
				v, ok := dp.Get(int(half[i].Idx))
				if !ok {
					return nil, nil, ErrUnexpected
				}
				half[i].Idx = uint64(ordered.Insert(v))
			}
		}
		dp = ordered
		right := dp.Split(b)

		leftEncoded, err := dp.Encode()
		if err != nil {
			return nil, nil, err
		}
		if err := pgr.WritePageAtOffset(leftEncoded, int64(n.DataPageOffset)); err != nil {
			return nil, nil, err
		}

		rightEncoded, err := right.Encode()
		if err != nil {
			return nil, nil, err
		}
		rightOffset, err := pgr.WritePage(rightEncoded)
		if err != nil {
			return nil, nil, err
		}

		min := siblingPairs[0].Idx
		for _, p := range siblingPairs {
			if p.Idx < min {
				min = p.Idx
			}
		}
		for i := range siblingPairs {
			siblingPairs[i].Idx -= min
		}

		sibling := NewLeaf(uint64(rightOffset), siblingPairs, false, n.ParentOffset)
		return medianKey, sibling, nil

	default:
		return nil, nil, ErrUnexpected
	}
}
