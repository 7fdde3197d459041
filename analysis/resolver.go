// Package analysis contains the read-only passes over the item database: the
// resolvability checker that gates binding generation, and the
// allocation-place advisor that classifies classes as movable or immovable.
package analysis

import (
	"errors"
	"fmt"

	"github.com/csnover/ritual/cpp"
	"github.com/csnover/ritual/database"
)

// ErrUnresolvedReference reports that an item mentions a type the database
// does not know yet, or one that is still generic. It is recovered locally
// by skipping the item; a later run can pick it up once the dependency is
// registered.
var ErrUnresolvedReference = errors.New("unresolved reference")

// CheckResolvable reports whether every type mentioned by decl is already
// known and fully concrete in db. A nil return means the item may proceed to
// binding generation.
func CheckResolvable(db *database.Database, decl database.Declaration) error {
	for _, t := range decl.AllInvolvedTypes() {
		if err := checkType(db, t); err != nil {
			return fmt.Errorf("%s: %w", decl.DeclPath(), err)
		}
	}
	return nil
}

func checkType(db *database.Database, t cpp.Type) error {
	switch v := t.(type) {
	case *cpp.ClassType:
		decl := db.FindType(v.Path)
		if decl == nil || decl.Kind != database.TypeClass {
			return fmt.Errorf("%w: class not found: %s", ErrUnresolvedReference, v.Path)
		}
		for _, arg := range v.Path.Last().TemplateArguments {
			if !cpp.IsConcrete(arg) {
				return fmt.Errorf("%w: template argument of %s is not concrete", ErrUnresolvedReference, v.Path)
			}
			if err := checkType(db, arg); err != nil {
				return err
			}
		}
		return nil

	case *cpp.EnumType:
		decl := db.FindType(v.Path)
		if decl == nil || decl.Kind != database.TypeEnum {
			return fmt.Errorf("%w: enum not found: %s", ErrUnresolvedReference, v.Path)
		}
		return nil

	case *cpp.PointerLikeType:
		return checkType(db, v.Target)

	case *cpp.FunctionPointerType:
		if err := checkType(db, v.Return); err != nil {
			return err
		}
		for _, arg := range v.Arguments {
			if err := checkType(db, arg); err != nil {
				return err
			}
		}
		return nil

	case *cpp.TemplateParamType:
		return fmt.Errorf("%w: template parameter %s", ErrUnresolvedReference, v.Name)

	default:
		return nil
	}
}
