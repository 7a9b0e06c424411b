package btree

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/connormullett/btreekv/internal/node"
)

func newTestTree(t *testing.T, b int) *BTree {
	t.Helper()
	dir := t.TempDir()
	tree, err := NewBuilder().Path(filepath.Join(dir, "test.db")).BParameter(b).Build()
	if err != nil {
		t.Fatalf("failed to build tree: %v", err)
	}
	return tree
}

func mustInsert(t *testing.T, tree *BTree, key, value string) {
	t.Helper()
	if err := tree.Insert([]byte(key), []byte(value)); err != nil {
		t.Fatalf("insert(%q, %q) failed: %v", key, value, err)
	}
}

func assertSearch(t *testing.T, tree *BTree, key, want string) {
	t.Helper()
	got, err := tree.Search([]byte(key))
	if err != nil {
		t.Fatalf("search(%q) failed: %v", key, err)
	}
	if string(got) != want {
		t.Errorf("search(%q) = %q, want %q", key, got, want)
	}
}

func assertKeyNotFound(t *testing.T, tree *BTree, key string) {
	t.Helper()
	_, err := tree.Search([]byte(key))
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("search(%q): expected KeyNotFound, got %v", key, err)
	}
}

// Scenario 1: tiny b, ascending inserts.
func TestInsertAscendingKeys(t *testing.T) {
	tree := newTestTree(t, 2)

	entries := []struct{ key, value string }{
		{"a", "shalom"}, {"b", "hello"}, {"c", "marhaba"},
		{"d", "olah"}, {"e", "salam"}, {"f", "hallo"},
		{"g", "Konnichiwa"}, {"h", "Ni hao"}, {"i", "Ciao"},
	}
	for _, e := range entries {
		mustInsert(t, tree, e.key, e.value)
	}
	for _, e := range entries {
		assertSearch(t, tree, e.key, e.value)
	}
}

// Scenario 2: search-after-build.
func TestSearchAfterBuild(t *testing.T) {
	tree := newTestTree(t, 2)

	mustInsert(t, tree, "a", "shalom")
	mustInsert(t, tree, "b", "hello")
	mustInsert(t, tree, "c", "marhaba")

	assertSearch(t, tree, "b", "hello")
	assertSearch(t, tree, "c", "marhaba")
}

// Scenario 3: delete-then-search.
func TestDeleteThenSearch(t *testing.T) {
	tree := newTestTree(t, 2)

	mustInsert(t, tree, "a", "shalom")
	mustInsert(t, tree, "b", "hello")
	mustInsert(t, tree, "c", "marhaba")
	mustInsert(t, tree, "d", "olah")

	if err := tree.Delete([]byte("c")); err != nil {
		t.Fatalf("delete(c) failed: %v", err)
	}
	assertKeyNotFound(t, tree, "c")
	assertSearch(t, tree, "d", "olah")
}

// Scenario 4: underflow triggers merge.
func TestUnderflowTriggersMerge(t *testing.T) {
	tree := newTestTree(t, 2)

	for _, e := range []struct{ key, value string }{
		{"d", "olah"}, {"e", "salam"}, {"f", "hallo"},
		{"a", "shalom"}, {"b", "hello"}, {"c", "marhaba"},
	} {
		mustInsert(t, tree, e.key, e.value)
	}

	assertSearch(t, tree, "c", "marhaba")

	for _, key := range []string{"c", "d", "e", "f"} {
		if err := tree.Delete([]byte(key)); err != nil {
			t.Fatalf("delete(%q) failed: %v", key, err)
		}
		assertKeyNotFound(t, tree, key)
	}

	assertSearch(t, tree, "a", "shalom")
	assertSearch(t, tree, "b", "hello")
}

// Scenario 5: root collapse. b=2 means a leaf only underflows once it
// drops to zero keys, so deleting "a" (leaving the left leaf with one key,
// still >= b-1) does not yet merge; deleting "b" empties that leaf and
// forces the root's two children back into one, collapsing the tree's
// height by one.
func TestRootCollapseAfterMerge(t *testing.T) {
	tree := newTestTree(t, 2)

	for _, key := range []string{"a", "b", "c", "d"} {
		mustInsert(t, tree, key, "v-"+key)
	}

	if err := tree.Delete([]byte("a")); err != nil {
		t.Fatalf("delete(a) failed: %v", err)
	}
	rootBeforeCollapse := tree.wal.GetRoot()

	if err := tree.Delete([]byte("b")); err != nil {
		t.Fatalf("delete(b) failed: %v", err)
	}
	rootAfterCollapse := tree.wal.GetRoot()
	if rootAfterCollapse == rootBeforeCollapse {
		t.Error("expected WAL root to change after collapse")
	}

	root, err := tree.readNode(rootAfterCollapse)
	if err != nil {
		t.Fatalf("failed to read new root: %v", err)
	}
	if root.Kind != node.KindLeaf {
		t.Errorf("expected root to collapse to a leaf, got kind %v", root.Kind)
	}

	assertSearch(t, tree, "c", "v-c")
	assertSearch(t, tree, "d", "v-d")
	assertKeyNotFound(t, tree, "a")
	assertKeyNotFound(t, tree, "b")
}

// Scenario 6: split on root.
func TestSplitOnRoot(t *testing.T) {
	tree := newTestTree(t, 2)

	for _, key := range []string{"a", "b", "c", "d"} {
		mustInsert(t, tree, key, "v-"+key)
	}

	root, err := tree.readNode(tree.wal.GetRoot())
	if err != nil {
		t.Fatalf("failed to read root: %v", err)
	}
	if root.Kind != node.KindInternal {
		t.Fatalf("expected root to have split into an internal node, got kind %v", root.Kind)
	}
	if len(root.Children) != 2 {
		t.Errorf("expected 2 children after root split, got %d", len(root.Children))
	}

	assertSearch(t, tree, "a", "v-a")
	assertSearch(t, tree, "d", "v-d")
}

func TestInsertRejectsOversizedKey(t *testing.T) {
	tree := newTestTree(t, 2)

	oversized := make([]byte, 64)
	for i := range oversized {
		oversized[i] = 'x'
	}
	if err := tree.Insert(oversized, []byte("v")); err == nil {
		t.Error("expected error inserting an oversized key")
	}
}

func TestDeleteMissingKeyFails(t *testing.T) {
	tree := newTestTree(t, 2)
	mustInsert(t, tree, "a", "shalom")

	err := tree.Delete([]byte("zzz"))
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected KeyNotFound, got %v", err)
	}
}

func TestBuildRejectsEmptyPath(t *testing.T) {
	if _, err := NewBuilder().BParameter(2).Build(); err == nil {
		t.Error("expected error building with empty path")
	}
}

func TestBuildRejectsZeroB(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewBuilder().Path(filepath.Join(dir, "db")).Build(); err == nil {
		t.Error("expected error building with b == 0")
	}
}
