package btree

import (
	"path/filepath"

	"github.com/connormullett/btreekv/internal/datapage"
	"github.com/connormullett/btreekv/internal/node"
	"github.com/connormullett/btreekv/internal/page"
	"github.com/connormullett/btreekv/internal/pager"
	"github.com/connormullett/btreekv/internal/wal"
)

// BTreeBuilder configures and constructs a BTree. The zero value is not
// usable; call Path and BParameter before Build.
type BTreeBuilder struct {
	path string
	b    int
}

// NewBuilder returns an empty BTreeBuilder.
func NewBuilder() *BTreeBuilder {
	return &BTreeBuilder{}
}

// Path sets the location of the main tree file. The WAL is created
// alongside it, in the same directory.
func (b *BTreeBuilder) Path(path string) *BTreeBuilder {
	b.path = path
	return b
}

// BParameter sets the B+tree branching parameter: a node holds between
// b-1 and 2b-1 keys, and b must be at least 2.
func (b *BTreeBuilder) BParameter(bParam int) *BTreeBuilder {
	b.b = bParam
	return b
}

// Build validates the builder's configuration and constructs a BTree. It
// truncates any existing tree file and writes an empty root leaf and its
// data page.
func (b *BTreeBuilder) Build() (*BTree, error) {
	if b.path == "" {
		return nil, newError(KindUnexpectedError, errUnexpected)
	}
	if b.b == 0 {
		return nil, newError(KindUnexpectedError, errUnexpected)
	}
	if !fitsPageSize(b.b, pager.DefaultPageSize) {
		return nil, newError(KindUnexpectedError, errUnexpected)
	}

	pgr, err := pager.Open(b.path, pager.Options{PageSize: pager.DefaultPageSize})
	if err != nil {
		return nil, newError(KindIOError, err)
	}

	dp := datapage.New(pgr.PageSize())
	dpEncoded, err := dp.Encode()
	if err != nil {
		return nil, newError(KindIOError, err)
	}
	rootDataOffset, err := pgr.WritePage(dpEncoded)
	if err != nil {
		return nil, newError(KindIOError, err)
	}

	root := node.NewLeaf(uint64(rootDataOffset), nil, true, nil)
	rootEncoded, err := root.Encode(pgr.PageSize())
	if err != nil {
		return nil, newError(KindIOError, err)
	}
	rootOffset, err := pgr.WritePage(rootEncoded)
	if err != nil {
		return nil, newError(KindIOError, err)
	}

	walPath := filepath.Join(filepath.Dir(b.path), filepath.Base(b.path)+".wal")
	w, err := wal.Open(walPath)
	if err != nil {
		return nil, newError(KindIOError, err)
	}
	if err := w.SetRoot(uint64(rootOffset)); err != nil {
		return nil, newError(KindIOError, err)
	}

	return &BTree{pager: pgr, wal: w, b: b.b}, nil
}

// fitsPageSize checks the size constraint from §6: a node with parameter b
// must be able to hold 2b offsets and 2b-1 keys within one page, alongside
// the fixed header.
func fitsPageSize(b, pageSize int) bool {
	required := 2*b*page.PtrSize + (2*b-1)*node.KeySize + node.HeaderSize
	return required <= pageSize
}
