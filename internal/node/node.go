// Package node implements Node, the in-memory view of one B+tree page:
// either an Internal node (children + separator keys) or a Leaf node (a
// data-page offset plus an ordered list of key/value-index pairs).
//
// # NODE PAGE LAYOUT
//
// Common header:
//
//	byte 0:    is_root (0/1)
//	byte 1:    node type (1 = Internal, 2 = Leaf)
//	bytes 2-9: parent offset, big-endian (zero if root)
//
// Internal body, starting at byte 10:
//
//	bytes 10-17: number of children C
//	next C*8 bytes: child offsets
//	next (C-1)*KeySize bytes: keys, fixed-width zero-padded
//
// Leaf body, starting at byte 10:
//
//	bytes 10-17: data page offset
//	bytes 18-25: number of pairs K
//	next K*(KeySize+8) bytes: pairs of (key fixed-width, value index big-endian)
package node

import (
	"sort"

	"github.com/connormullett/btreekv/internal/page"
)

// KeySize is the fixed width, in bytes, of every key field on disk. Keys
// longer than KeySize are rejected by the caller before they ever reach a
// node.
const KeySize = 32

// Kind tags which variant a Node holds.
type Kind byte

const (
	KindInternal   Kind = 1
	KindLeaf       Kind = 2
	KindUnexpected Kind = 3
)

const (
	isRootOffset   = 0
	nodeTypeOffset = 1
	parentOffset   = 2
	// HeaderSize is the size, in bytes, of the common header shared by
	// every node kind.
	HeaderSize = parentOffset + page.PtrSize
)

const (
	internalNumChildrenOffset = HeaderSize
	internalChildrenOffset    = internalNumChildrenOffset + page.PtrSize
)

const (
	leafDataPageOffsetOffset = HeaderSize
	leafNumPairsOffset       = leafDataPageOffsetOffset + page.PtrSize
	leafPairsOffset          = leafNumPairsOffset + page.PtrSize
	pairWidth                = KeySize + page.PtrSize
)

// Pair is a leaf entry: a key and the index of its value inside the leaf's
// data page.
type Pair struct {
	Key []byte
	Idx uint64
}

// Node is one B+tree node, occupying exactly one page.
type Node struct {
	Kind   Kind
	IsRoot bool
	// ParentOffset is nil when IsRoot is true for the live root. It is a
	// lookup key for bottom-up underflow repair, not an ownership
	// reference — no cycle exists since offsets are plain integers.
	ParentOffset *uint64

	// Internal-only fields.
	Children []uint64
	Keys     [][]byte

	// Leaf-only fields.
	DataPageOffset uint64
	Pairs          []Pair
}

// NewInternal builds an Internal node.
func NewInternal(children []uint64, keys [][]byte, isRoot bool, parentOffset *uint64) *Node {
	return &Node{
		Kind:         KindInternal,
		IsRoot:       isRoot,
		ParentOffset: parentOffset,
		Children:     children,
		Keys:         keys,
	}
}

// NewLeaf builds a Leaf node.
func NewLeaf(dataPageOffset uint64, pairs []Pair, isRoot bool, parentOffset *uint64) *Node {
	return &Node{
		Kind:           KindLeaf,
		IsRoot:         isRoot,
		ParentOffset:   parentOffset,
		DataPageOffset: dataPageOffset,
		Pairs:          pairs,
	}
}

// SearchSlot returns the smallest index i such that key <= keys[i], or
// len(keys) if no such index exists. This is the shared descent-slot
// convention used by search, insert and delete on Internal nodes' children.
func SearchSlot(keys [][]byte, key []byte) int {
	return sort.Search(len(keys), func(i int) bool {
		return string(key) <= string(keys[i])
	})
}

// PairSlot returns the index of key within pairs and whether it was found,
// following the same ordering convention as SearchSlot.
func PairSlot(pairs []Pair, key []byte) (int, bool) {
	i := sort.Search(len(pairs), func(i int) bool {
		return string(pairs[i].Key) >= string(key)
	})
	if i < len(pairs) && string(pairs[i].Key) == string(key) {
		return i, true
	}
	return i, false
}

// Decode reconstructs a Node from a page's raw bytes.
func Decode(raw []byte) (*Node, error) {
	pg := page.New(raw)

	isRoot := pg.Byte(isRootOffset) != 0
	kind := Kind(pg.Byte(nodeTypeOffset))

	var parent *uint64
	if !isRoot {
		v := pg.GetOffset(parentOffset)
		parent = &v
	}

	switch kind {
	case KindInternal:
		numChildren := int(pg.GetOffset(internalNumChildrenOffset))
		children := make([]uint64, numChildren)
		offset := internalChildrenOffset
		for i := 0; i < numChildren; i++ {
			children[i] = pg.GetOffset(offset)
			offset += page.PtrSize
		}

		numKeys := numChildren - 1
		if numChildren == 0 {
			numKeys = 0
		}
		keys := make([][]byte, 0, numKeys)
		for i := 0; i < numKeys; i++ {
			keys = append(keys, pg.GetFixed(offset, KeySize))
			offset += KeySize
		}

		return &Node{Kind: KindInternal, IsRoot: isRoot, ParentOffset: parent, Children: children, Keys: keys}, nil

	case KindLeaf:
		dataPageOffset := pg.GetOffset(leafDataPageOffsetOffset)
		numPairs := int(pg.GetOffset(leafNumPairsOffset))

		pairs := make([]Pair, 0, numPairs)
		offset := leafPairsOffset
		for i := 0; i < numPairs; i++ {
			key := pg.GetFixed(offset, KeySize)
			idx := pg.GetOffset(offset + KeySize)
			pairs = append(pairs, Pair{Key: key, Idx: idx})
			offset += pairWidth
		}

		return &Node{Kind: KindLeaf, IsRoot: isRoot, ParentOffset: parent, DataPageOffset: dataPageOffset, Pairs: pairs}, nil

	default:
		return &Node{Kind: KindUnexpected}, ErrUnexpected
	}
}

// Encode serializes the Node into a pageSize-wide byte slice.
func (n *Node) Encode(pageSize int) ([]byte, error) {
	raw := make([]byte, pageSize)
	pg := page.New(raw)

	if n.IsRoot {
		pg.SetByte(isRootOffset, 1)
	}
	pg.SetByte(nodeTypeOffset, byte(n.Kind))
	if !n.IsRoot && n.ParentOffset != nil {
		pg.PutOffset(parentOffset, *n.ParentOffset)
	}

	switch n.Kind {
	case KindInternal:
		pg.PutOffset(internalNumChildrenOffset, uint64(len(n.Children)))
		offset := internalChildrenOffset
		for _, c := range n.Children {
			pg.PutOffset(offset, c)
			offset += page.PtrSize
		}
		for _, k := range n.Keys {
			if err := pg.PutFixed(offset, KeySize, k); err != nil {
				return nil, err
			}
			offset += KeySize
		}

	case KindLeaf:
		pg.PutOffset(leafDataPageOffsetOffset, n.DataPageOffset)
		pg.PutOffset(leafNumPairsOffset, uint64(len(n.Pairs)))
		offset := leafPairsOffset
		for _, p := range n.Pairs {
			if err := pg.PutFixed(offset, KeySize, p.Key); err != nil {
				return nil, err
			}
			pg.PutOffset(offset+KeySize, p.Idx)
			offset += pairWidth
		}

	default:
		return nil, ErrUnexpected
	}

	return raw, nil
}
