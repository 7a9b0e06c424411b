package node

import (
	"github.com/connormullett/btreekv/internal/datapage"
	"github.com/connormullett/btreekv/internal/pager"
)

// Merge combines two sibling nodes of the same kind into one, appending any
// backing data page through pgr. separator is the parent key that used to
// sit between left and right; for an Internal merge it is reinserted
// between the two key vectors so the result stays a valid B+tree node —
// the source this engine is modeled on omits that reinsertion, which loses
// the separator's ordering information.
func Merge(left, right *Node, separator []byte, pgr *pager.Pager) (*Node, error) {
	if left.Kind != right.Kind {
		return nil, ErrUnexpected
	}

	switch left.Kind {
	case KindInternal:
		keys := make([][]byte, 0, len(left.Keys)+1+len(right.Keys))
		keys = append(keys, left.Keys...)
		keys = append(keys, separator)
		keys = append(keys, right.Keys...)

		children := make([]uint64, 0, len(left.Children)+len(right.Children))
		children = append(children, left.Children...)
		children = append(children, right.Children...)

		return NewInternal(children, keys, left.IsRoot, left.ParentOffset), nil

	case KindLeaf:
		leftRaw, err := pgr.GetPage(int64(left.DataPageOffset))
		if err != nil {
			return nil, err
		}
		leftDP, err := datapage.Decode(leftRaw)
		if err != nil {
			return nil, err
		}

		rightRaw, err := pgr.GetPage(int64(right.DataPageOffset))
		if err != nil {
			return nil, err
		}
		rightDP, err := datapage.Decode(rightRaw)
		if err != nil {
			return nil, err
		}

		shift := uint64(leftDP.Len())
		merged := datapage.Concat(pgr.PageSize(), leftDP, rightDP)
		mergedEncoded, err := merged.Encode()
		if err != nil {
			return nil, err
		}
		mergedOffset, err := pgr.WritePage(mergedEncoded)
		if err != nil {
			return nil, err
		}

		pairs := make([]Pair, 0, len(left.Pairs)+len(right.Pairs))
		pairs = append(pairs, left.Pairs...)
		for _, p := range right.Pairs {
			pairs = append(pairs, Pair{Key: p.Key, Idx: p.Idx + shift})
		}

		return NewLeaf(uint64(mergedOffset), pairs, left.IsRoot, left.ParentOffset), nil

	default:
		return nil, ErrUnexpected
	}
}
