package cpp

import "errors"

var (
	// ErrUnsupportedType reports that no conversion rule covers the given
	// type, most commonly because a template parameter was left in place.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMissingName reports that a renderer needed a declarator name and
	// none was supplied.
	ErrMissingName = errors.New("declarator name required")

	// ErrUnexpectedName reports that a declarator name was supplied in a
	// context that forbids one.
	ErrUnexpectedName = errors.New("unexpected declarator name")
)
