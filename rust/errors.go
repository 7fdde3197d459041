package rust

import "errors"

// ErrMalformedInput reports a structural contract violation in the source
// data, such as a receiver argument with an indirection kind that cannot be
// rendered. It is fatal: the front end produced data the generator cannot
// reason about.
var ErrMalformedInput = errors.New("malformed input")
