package page

import "errors"

// ErrValueTooLarge is returned when a fixed-width field cannot hold the
// value a caller tried to write into it (e.g. a key longer than KEY_SIZE).
var ErrValueTooLarge = errors.New("page: value does not fit in fixed-width field")
