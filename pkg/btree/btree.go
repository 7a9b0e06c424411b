// Package btree implements a persistent, single-writer key→value store on
// top of a disk-resident B+tree: a fixed-size paged file, copy-on-write
// root-to-leaf traversal, and a tiny write-ahead log that records only the
// currently committed tree root offset.
package btree

import (
	"bytes"

	"github.com/connormullett/btreekv/internal/datapage"
	"github.com/connormullett/btreekv/internal/node"
	"github.com/connormullett/btreekv/internal/pager"
	"github.com/connormullett/btreekv/internal/wal"
)

// BTree is an on-disk B+tree. Every node is persisted to the table file;
// leaf nodes point at a data page holding their values.
type BTree struct {
	pager *pager.Pager
	wal   *wal.WAL
	b     int
}

func (t *BTree) isNodeFull(n *node.Node) (bool, error) {
	switch n.Kind {
	case node.KindLeaf:
		return len(n.Pairs) == 2*t.b-1, nil
	case node.KindInternal:
		return len(n.Keys) == 2*t.b-1, nil
	default:
		return false, newError(KindUnexpectedError, errUnexpected)
	}
}

func (t *BTree) isNodeUnderflow(n *node.Node) (bool, error) {
	switch n.Kind {
	case node.KindLeaf:
		return len(n.Pairs) < t.b-1 && !n.IsRoot, nil
	case node.KindInternal:
		return len(n.Keys) < t.b-1 && !n.IsRoot, nil
	default:
		return false, newError(KindUnexpectedError, errUnexpected)
	}
}

func (t *BTree) readNode(offset uint64) (*node.Node, error) {
	raw, err := t.pager.GetPage(int64(offset))
	if err != nil {
		return nil, newError(KindIOError, err)
	}
	n, err := node.Decode(raw)
	if err != nil {
		return nil, newError(KindUnexpectedError, err)
	}
	return n, nil
}

func (t *BTree) writeNode(n *node.Node) (uint64, error) {
	encoded, err := n.Encode(t.pager.PageSize())
	if err != nil {
		return 0, newError(KindIOError, err)
	}
	offset, err := t.pager.WritePage(encoded)
	if err != nil {
		return 0, newError(KindIOError, err)
	}
	return uint64(offset), nil
}

func (t *BTree) writeNodeAt(n *node.Node, offset uint64) error {
	encoded, err := n.Encode(t.pager.PageSize())
	if err != nil {
		return newError(KindIOError, err)
	}
	if err := t.pager.WritePageAtOffset(encoded, int64(offset)); err != nil {
		return newError(KindIOError, err)
	}
	return nil
}

// Insert places key→value into the tree. Overwriting a previously stored
// value for the same key is not performed: a duplicate key is inserted as
// a second leaf entry, matching the ordering convention used by search and
// delete (the first exact match encountered wins on lookup).
func (t *BTree) Insert(key, value []byte) error {
	if len(key) > node.KeySize {
		return newError(KindUnexpectedError, errUnexpected)
	}

	rootOffset := t.wal.GetRoot()
	root, err := t.readNode(rootOffset)
	if err != nil {
		return err
	}

	var newRootOffset uint64
	var newRoot *node.Node

	full, err := t.isNodeFull(root)
	if err != nil {
		return err
	}

	if full {
		newRoot = node.NewInternal(nil, nil, true, nil)
		newRootOffset, err = t.writeNode(newRoot)
		if err != nil {
			return err
		}

		parent := newRootOffset
		root.ParentOffset = &parent
		root.IsRoot = false

		median, sibling, err := root.Split(t.b, t.pager)
		if err != nil {
			return newError(KindUnexpectedError, err)
		}

		oldRootOffset, err := t.writeNode(root)
		if err != nil {
			return err
		}
		siblingOffset, err := t.writeNode(sibling)
		if err != nil {
			return err
		}

		newRoot.Children = []uint64{oldRootOffset, siblingOffset}
		newRoot.Keys = [][]byte{median}
		if err := t.writeNodeAt(newRoot, newRootOffset); err != nil {
			return err
		}
	} else {
		newRoot = root
		newRootOffset, err = t.writeNode(newRoot)
		if err != nil {
			return err
		}
	}

	if err := t.insertNonFull(newRoot, newRootOffset, key, value); err != nil {
		return err
	}

	if err := t.wal.SetRoot(newRootOffset); err != nil {
		return newError(KindIOError, err)
	}
	return nil
}

func (t *BTree) insertNonFull(n *node.Node, offset uint64, key, value []byte) error {
	switch n.Kind {
	case node.KindLeaf:
		idx, _ := node.PairSlot(n.Pairs, key)

		raw, err := t.pager.GetPage(int64(n.DataPageOffset))
		if err != nil {
			return newError(KindIOError, err)
		}
		dp, err := datapage.Decode(raw)
		if err != nil {
			return newError(KindUnexpectedError, err)
		}
		dataIdx := dp.Insert(value)

		pairs := make([]node.Pair, 0, len(n.Pairs)+1)
		pairs = append(pairs, n.Pairs[:idx]...)
		pairs = append(pairs, node.Pair{Key: append([]byte{}, key...), Idx: uint64(dataIdx)})
		pairs = append(pairs, n.Pairs[idx:]...)
		n.Pairs = pairs

		encoded, err := dp.Encode()
		if err != nil {
			return newError(KindIOError, err)
		}
		dataOffset, err := t.pager.WritePage(encoded)
		if err != nil {
			return newError(KindIOError, err)
		}
		n.DataPageOffset = uint64(dataOffset)

		return t.writeNodeAt(n, offset)

	case node.KindInternal:
		idx := node.SearchSlot(n.Keys, key)
		childOffset := n.Children[idx]

		child, err := t.readNode(childOffset)
		if err != nil {
			return err
		}
		newChildOffset, err := t.writeNode(child)
		if err != nil {
			return err
		}
		n.Children[idx] = newChildOffset

		full, err := t.isNodeFull(child)
		if err != nil {
			return err
		}
		if full {
			median, sibling, err := child.Split(t.b, t.pager)
			if err != nil {
				return newError(KindUnexpectedError, err)
			}
			if err := t.writeNodeAt(child, newChildOffset); err != nil {
				return err
			}
			siblingOffset, err := t.writeNode(sibling)
			if err != nil {
				return err
			}

			children := make([]uint64, 0, len(n.Children)+1)
			children = append(children, n.Children[:idx+1]...)
			children = append(children, siblingOffset)
			children = append(children, n.Children[idx+1:]...)
			n.Children = children

			keys := make([][]byte, 0, len(n.Keys)+1)
			keys = append(keys, n.Keys[:idx]...)
			keys = append(keys, median)
			keys = append(keys, n.Keys[idx:]...)
			n.Keys = keys

			if err := t.writeNodeAt(n, offset); err != nil {
				return err
			}

			if bytes.Compare(key, median) <= 0 {
				return t.insertNonFull(child, newChildOffset, key, value)
			}
			return t.insertNonFull(sibling, siblingOffset, key, value)
		}

		if err := t.writeNodeAt(n, offset); err != nil {
			return err
		}
		return t.insertNonFull(child, newChildOffset, key, value)

	default:
		return newError(KindUnexpectedError, errUnexpected)
	}
}

// Search returns the value stored for key, or ErrKeyNotFound if no such
// entry exists. Search performs no copy-on-write and never mutates the
// WAL root.
func (t *BTree) Search(key []byte) ([]byte, error) {
	rootOffset := t.wal.GetRoot()
	root, err := t.readNode(rootOffset)
	if err != nil {
		return nil, err
	}
	return t.searchNode(root, key)
}

func (t *BTree) searchNode(n *node.Node, key []byte) ([]byte, error) {
	switch n.Kind {
	case node.KindInternal:
		idx := node.SearchSlot(n.Keys, key)
		child, err := t.readNode(n.Children[idx])
		if err != nil {
			return nil, err
		}
		return t.searchNode(child, key)

	case node.KindLeaf:
		idx, found := node.PairSlot(n.Pairs, key)
		if !found {
			return nil, ErrKeyNotFound
		}
		raw, err := t.pager.GetPage(int64(n.DataPageOffset))
		if err != nil {
			return nil, newError(KindIOError, err)
		}
		dp, err := datapage.Decode(raw)
		if err != nil {
			return nil, newError(KindUnexpectedError, err)
		}
		value, ok := dp.Get(int(n.Pairs[idx].Idx))
		if !ok {
			return nil, newError(KindUnexpectedError, errUnexpected)
		}
		return value, nil

	default:
		return nil, newError(KindUnexpectedError, errUnexpected)
	}
}

// Delete removes key from the tree, returning ErrKeyNotFound if it is not
// present. A successful delete may trigger one or more borrow-or-merge
// steps walking back up the copy-on-write spine.
func (t *BTree) Delete(key []byte) error {
	rootOffset := t.wal.GetRoot()
	root, err := t.readNode(rootOffset)
	if err != nil {
		return err
	}

	newRootOffset, err := t.writeNode(root)
	if err != nil {
		return err
	}

	if err := t.deleteKeyFromSubtree(key, root, newRootOffset); err != nil {
		return err
	}
	// A root collapse has already committed the merged node as the root.
	if t.wal.GetRoot() != rootOffset {
		return nil
	}

	return errOrSetRoot(t, newRootOffset)
}

func errOrSetRoot(t *BTree, offset uint64) error {
	if err := t.wal.SetRoot(offset); err != nil {
		return newError(KindIOError, err)
	}
	return nil
}

func (t *BTree) deleteKeyFromSubtree(key []byte, n *node.Node, offset uint64) error {
	switch n.Kind {
	case node.KindLeaf:
		idx, found := node.PairSlot(n.Pairs, key)
		if !found {
			return ErrKeyNotFound
		}

		raw, err := t.pager.GetPage(int64(n.DataPageOffset))
		if err != nil {
			return newError(KindIOError, err)
		}
		dp, err := datapage.Decode(raw)
		if err != nil {
			return newError(KindUnexpectedError, err)
		}
		if err := dp.Remove(int(n.Pairs[idx].Idx)); err != nil {
			return newError(KindUnexpectedError, err)
		}
		renumberAfterRemove(n.Pairs, n.Pairs[idx].Idx)

		encoded, err := dp.Encode()
		if err != nil {
			return newError(KindIOError, err)
		}
		dataOffset, err := t.pager.WritePage(encoded)
		if err != nil {
			return newError(KindIOError, err)
		}
		n.DataPageOffset = uint64(dataOffset)

		n.Pairs = append(n.Pairs[:idx], n.Pairs[idx+1:]...)

		if err := t.writeNodeAt(n, offset); err != nil {
			return err
		}

		return t.borrowIfNeeded(n, offset, key)

	case node.KindInternal:
		idx := node.SearchSlot(n.Keys, key)
		childOffset := n.Children[idx]

		child, err := t.readNode(childOffset)
		if err != nil {
			return err
		}
		child.ParentOffset = &offset

		newChildOffset, err := t.writeNode(child)
		if err != nil {
			return err
		}
		n.Children[idx] = newChildOffset

		if err := t.writeNodeAt(n, offset); err != nil {
			return err
		}

		return t.deleteKeyFromSubtree(key, child, newChildOffset)

	default:
		return newError(KindUnexpectedError, errUnexpected)
	}
}

// renumberAfterRemove shifts down, by one, the recorded data-page index of
// every pair whose value sat after the just-removed one — Remove(idx)
// collapses the data page in place, so any pair pointing past idx now
// points one slot too far to the right.
func renumberAfterRemove(pairs []node.Pair, removedIdx uint64) {
	for i := range pairs {
		if pairs[i].Idx > removedIdx {
			pairs[i].Idx--
		}
	}
}

func (t *BTree) borrowIfNeeded(n *node.Node, offset uint64, key []byte) error {
	underflow, err := t.isNodeUnderflow(n)
	if err != nil {
		return err
	}
	if !underflow {
		return nil
	}

	if n.ParentOffset == nil {
		return newError(KindUnexpectedError, errUnexpected)
	}
	parentOffset := *n.ParentOffset
	parent, err := t.readNode(parentOffset)
	if err != nil {
		return err
	}
	if parent.Kind != node.KindInternal {
		return newError(KindUnexpectedError, errUnexpected)
	}

	// idx is the same descent-slot index originally used to reach n
	// through parent.Children; the sibling chosen to merge with sits at
	// idx-1, or idx+1 when n is the leftmost child.
	idx := node.SearchSlot(parent.Keys, key)
	var siblingIdx int
	if idx > 0 {
		siblingIdx = idx - 1
	} else {
		siblingIdx = idx + 1
	}

	siblingOffset := parent.Children[siblingIdx]
	sibling, err := t.readNode(siblingOffset)
	if err != nil {
		return err
	}

	// The separating key removed from the parent is keys[idx], clamped to
	// the last key when n is the rightmost child (idx == len(keys)).
	keyIdx := idx
	if keyIdx >= len(parent.Keys) {
		keyIdx = len(parent.Keys) - 1
	}
	separator := parent.Keys[keyIdx]

	left, right := n, sibling
	if siblingIdx < idx {
		left, right = sibling, n
	}
	merged, err := node.Merge(left, right, separator, t.pager)
	if err != nil {
		return newError(KindUnexpectedError, err)
	}
	mergedOffset, err := t.writeNode(merged)
	if err != nil {
		return err
	}

	mergedIdx := idx
	if siblingIdx < mergedIdx {
		mergedIdx = siblingIdx
	}
	parent.Children = append(parent.Children[:mergedIdx], parent.Children[mergedIdx+2:]...)

	if parent.IsRoot && len(parent.Children) == 0 {
		merged.IsRoot = true
		merged.ParentOffset = nil
		if err := t.writeNodeAt(merged, mergedOffset); err != nil {
			return err
		}
		return errOrSetRoot(t, mergedOffset)
	}

	parent.Keys = append(parent.Keys[:keyIdx], parent.Keys[keyIdx+1:]...)

	children := make([]uint64, 0, len(parent.Children)+1)
	children = append(children, parent.Children[:mergedIdx]...)
	children = append(children, mergedOffset)
	children = append(children, parent.Children[mergedIdx:]...)
	parent.Children = children

	if err := t.writeNodeAt(parent, parentOffset); err != nil {
		return err
	}

	return t.borrowIfNeeded(parent, parentOffset, key)
}
