package node

import "errors"

var (
	// ErrUnexpected flags a corrupt on-disk byte or a structural
	// precondition that should never occur in a well-formed tree.
	ErrUnexpected = errors.New("node: unexpected node state")
	// ErrUTF8 reports a key that is not valid UTF-8. Keys are handled as
	// raw bytes, and no function in this package returns it.
	ErrUTF8 = errors.New("node: key is not valid utf-8")
)
