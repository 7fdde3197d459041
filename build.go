package ritual

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/csnover/ritual/analysis"
	"github.com/csnover/ritual/cpp"
	"github.com/csnover/ritual/database"
	"github.com/csnover/ritual/rust"
)

// SkippedItem records a declaration the generator could not process in this
// run. Skipped items stay in the database and become eligible again once
// their missing dependencies are registered.
type SkippedItem struct {
	Path   cpp.Path
	Reason string
}

// builder turns source declarations into Rust items. It walks the database
// in declaration order; each item is checked for resolvability and either
// processed or skipped with a reason.
type builder struct {
	db     *database.Database
	rust   *rust.Database
	mapper *cpp.Mapper
	types  *rust.TypeMapper
	crate  string
	logger *slog.Logger

	skipped []SkippedItem

	// modules tracks created module items by path key.
	modules map[string]bool

	// names tracks used FFI symbol and wrapper path names so overloads get
	// distinct numeric suffixes.
	names map[string]int
}

func newBuilder(db *database.Database, rustDB *rust.Database, mapper *cpp.Mapper, crate string, logger *slog.Logger) *builder {
	b := &builder{
		db:      db,
		rust:    rustDB,
		mapper:  mapper,
		crate:   crate,
		logger:  logger,
		modules: make(map[string]bool),
		names:   make(map[string]int),
	}
	b.types = &rust.TypeMapper{Crate: crate, Resolve: b.resolveTypePath}
	return b
}

func (b *builder) run(ctx context.Context) error {
	for _, item := range b.db.Items {
		if item.Processed() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		decl := item.Declaration
		if err := analysis.CheckResolvable(b.db, decl); err != nil {
			b.logger.Debug("skipping unresolvable item",
				slog.String("path", decl.DeclPath().String()),
				slog.String("reason", err.Error()))
			b.skipped = append(b.skipped, SkippedItem{Path: decl.DeclPath(), Reason: err.Error()})
			continue
		}

		var err error
		switch d := decl.(type) {
		case *database.TypeDecl:
			err = b.buildType(item, d)
		case *database.Function:
			err = b.buildFunction(item, d)
		case *database.EnumValue:
			err = b.buildEnumValue(item, d)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", decl.DeclPath(), err)
		}
	}
	return nil
}

// resolveTypePath maps a declared class or enum path to its Rust item path.
// It refuses paths with no backing declaration so references cannot dangle.
func (b *builder) resolveTypePath(p cpp.Path) (rust.Path, error) {
	if b.db.FindType(p) == nil {
		return nil, fmt.Errorf("no declaration for type %s", p)
	}
	return b.typePath(p), nil
}

// typePath derives the Rust path for a declared type. Namespace components
// become snake_case modules; a top-level type gets a module named after
// itself, so every type lives inside exactly one file.
func (b *builder) typePath(p cpp.Path) rust.Path {
	out := rust.Path{b.crate}
	items := p.Items
	if len(items) == 1 {
		out = append(out, rust.SnakeCase(items[0].Name))
	} else {
		for _, item := range items[:len(items)-1] {
			out = append(out, rust.SanitizeIdent(rust.SnakeCase(item.Name)))
		}
	}
	return append(out, rust.SanitizeIdent(items[len(items)-1].Name))
}

// ensureModules registers module items for every component of the chain
// between the crate root and a contained item.
func (b *builder) ensureModules(moduleChain rust.Path) {
	for i := 2; i <= len(moduleChain); i++ {
		prefix := moduleChain[:i]
		key := prefix.Key()
		if b.modules[key] {
			continue
		}
		b.modules[key] = true
		b.rust.Add(&rust.Module{Path: append(rust.Path{}, prefix...)})
	}
}

// uniqueName reserves name within a namespace key, appending a numeric
// suffix for every collision after the first.
func (b *builder) uniqueName(scope, name string) string {
	key := scope + "\x00" + name
	b.names[key]++
	if n := b.names[key]; n > 1 {
		return fmt.Sprintf("%s%d", name, n)
	}
	return name
}

// ffiName derives the exported C symbol name for a source function.
func (b *builder) ffiName(p cpp.Path) string {
	parts := make([]string, 0, len(p.Items)+1)
	parts = append(parts, rust.SnakeCase(b.crate))
	for _, item := range p.Items {
		parts = append(parts, item.Name)
	}
	return b.uniqueName("ffi", strings.Join(parts, "_"))
}

func (b *builder) buildType(item *database.Item, d *database.TypeDecl) error {
	if d.Kind == database.TypeClass && b.mapper.IsFlagsWrapper(cpp.Class(d.Path)) {
		// Flags instantiations are registered so references to them
		// resolve, but their values travel as plain unsigned ints; no
		// wrapper struct exists for them.
		return nil
	}
	path := b.typePath(d.Path)
	parent, _ := path.Parent()
	b.ensureModules(parent)

	kind := rust.EnumWrapper
	if d.Kind == database.TypeClass {
		kind = rust.ImmovableClassWrapper
		if d.IsMovable {
			kind = rust.MovableClassWrapper
		}
	}
	s := &rust.Struct{Path: path, StructKind: kind, IsPublic: true}
	b.rust.Add(s)
	item.Rust = s
	return nil
}

func (b *builder) buildEnumValue(item *database.Item, d *database.EnumValue) error {
	enumPath, ok := d.Path.Parent()
	if !ok {
		return fmt.Errorf("enum value %s has no parent enum", d.Path)
	}
	parent, err := b.resolveTypePath(enumPath)
	if err != nil {
		return err
	}
	v := &rust.EnumValue{
		Path:  parent.Join(rust.ScreamingSnakeCase(d.Path.Last().Name)),
		Value: d.Value,
	}
	b.rust.Add(v)
	item.Rust = v
	return nil
}

// sourceArgument is one argument of the source function after the receiver,
// if any, has been folded in as a leading argument named "self".
type sourceArgument struct {
	name string
	typ  cpp.Type
}

func (b *builder) buildFunction(item *database.Item, d *database.Function) error {
	src, err := sourceArguments(d)
	if err != nil {
		return err
	}

	ret := d.Return
	if ret == nil {
		ret = cpp.Void()
	}
	if d.IsConstructor {
		if d.Member == nil {
			return fmt.Errorf("constructor %s has no member info", d.Path)
		}
		ret = cpp.Class(d.Member.ClassPath)
	}

	// Map every argument and the return through the FFI rules, then into
	// final API/FFI type pairs.
	ffiArgs := make([]database.FFIArgument, 0, len(src)+1)
	wrapperArgs := make([]rust.FunctionArgument, 0, len(src))
	for i, a := range src {
		ft, err := b.mapper.ToFFI(a.typ, cpp.RoleNotReturnType)
		if err != nil {
			return fmt.Errorf("argument %s: %w", a.name, err)
		}
		final, err := b.types.MapFinal(ft, cpp.RoleNotReturnType, !ft.NeedsOwningVariant)
		if err != nil {
			return fmt.Errorf("argument %s: %w", a.name, err)
		}
		name := rust.SanitizeIdent(rust.SnakeCase(a.name))
		ffiName := name
		if a.name == "self" {
			// "self" is not a legal parameter name inside an extern block.
			name = "self"
			ffiName = "this_ptr"
		}
		ffiArgs = append(ffiArgs, database.FFIArgument{Name: ffiName, Type: ft})
		wrapperArgs = append(wrapperArgs, rust.FunctionArgument{Name: name, Type: final, FFIIndex: i})
	}

	retFFI, err := b.mapper.ToFFI(ret, cpp.RoleReturnType)
	if err != nil {
		return fmt.Errorf("return type: %w", err)
	}
	retFinal, err := b.types.MapFinal(retFFI, cpp.RoleReturnType, !retFFI.NeedsOwningVariant)
	if err != nil {
		return fmt.Errorf("return type: %w", err)
	}

	// Movable by-value results travel through a caller-supplied
	// out-location appended after the declared arguments. Immovable results
	// come back as an owned heap pointer in the return position.
	var retSlot *int
	if retFinal.Conversion == rust.ConvValueToPtr {
		idx := len(ffiArgs)
		retSlot = &idx
		ffiArgs = append(ffiArgs, database.FFIArgument{Name: "output", Type: retFFI})
	}

	ffiName := b.ffiName(d.Path)
	item.FFIFunctions = append(item.FFIFunctions, database.FFIFunction{
		Name:            ffiName,
		Return:          retFFI,
		Arguments:       ffiArgs,
		ReturnSlotIndex: retSlot,
	})

	ffiItem, err := b.buildFFIItem(ffiName, retFFI, ffiArgs, retSlot)
	if err != nil {
		return err
	}
	b.rust.Add(ffiItem)

	path, err := b.wrapperPath(d)
	if err != nil {
		return err
	}

	f := &rust.Function{
		Path:           path,
		IsPublic:       true,
		IsUnsafe:       hasRawPointerArgument(wrapperArgs),
		Arguments:      wrapperArgs,
		Return:         retFinal,
		ReturnFFIIndex: retSlot,
		FFIPath:        ffiItem.Path,
	}
	b.rust.Add(f)
	item.Rust = f
	return nil
}

// sourceArguments folds the receiver into the argument list. The receiver
// becomes a leading argument named "self" whose indirection mirrors the
// declared receiver form.
func sourceArguments(d *database.Function) ([]sourceArgument, error) {
	var src []sourceArgument
	if d.Member != nil && !d.IsConstructor && !d.Member.IsStatic && d.Member.Receiver != database.ReceiverNone {
		class := cpp.Class(d.Member.ClassPath)
		var t cpp.Type
		switch d.Member.Receiver {
		case database.ReceiverConstRef:
			t = cpp.ConstRef(class)
		case database.ReceiverMutRef:
			t = cpp.Ref(class)
		case database.ReceiverValue:
			t = class
		default:
			return nil, fmt.Errorf("unsupported receiver kind %d", int(d.Member.Receiver))
		}
		src = append(src, sourceArgument{name: "self", typ: t})
	}
	for _, a := range d.Arguments {
		src = append(src, sourceArgument{name: a.Name, typ: a.Type})
	}
	return src, nil
}

// buildFFIItem derives the Rust declaration of the foreign symbol. With an
// out-location the function returns nothing and the slot carries the result
// pointer instead.
func (b *builder) buildFFIItem(name string, retFFI cpp.FFIType, args []database.FFIArgument, retSlot *int) (*rust.FFIFunction, error) {
	out := &rust.FFIFunction{Path: rust.Path{b.crate, "ffi", name}}
	for _, a := range args {
		t, err := b.types.MapType(a.Type.FFI)
		if err != nil {
			return nil, fmt.Errorf("FFI argument %s: %w", a.Name, err)
		}
		out.Arguments = append(out.Arguments, rust.FFIArgument{Name: a.Name, Type: t})
	}
	if retSlot != nil {
		out.Return = rust.Unit()
		return out, nil
	}
	ret, err := b.types.MapType(retFFI.FFI)
	if err != nil {
		return nil, fmt.Errorf("FFI return: %w", err)
	}
	out.Return = ret
	return out, nil
}

// wrapperPath derives the Rust path of the generated wrapper function.
// Member functions live under their class wrapper; constructors are named
// "new"; free functions go to the module for their namespace.
func (b *builder) wrapperPath(d *database.Function) (rust.Path, error) {
	if d.Member != nil {
		parent, err := b.resolveTypePath(d.Member.ClassPath)
		if err != nil {
			return nil, err
		}
		name := "new"
		if !d.IsConstructor {
			name = rust.SanitizeIdent(rust.SnakeCase(d.Path.Last().Name))
		}
		return parent.Join(b.uniqueName(parent.Key(), name)), nil
	}

	out := rust.Path{b.crate}
	items := d.Path.Items
	if len(items) == 1 {
		// Free functions without a namespace share one module.
		out = append(out, "functions")
	} else {
		for _, item := range items[:len(items)-1] {
			out = append(out, rust.SanitizeIdent(rust.SnakeCase(item.Name)))
		}
	}
	b.ensureModules(out)
	name := rust.SanitizeIdent(rust.SnakeCase(items[len(items)-1].Name))
	return out.Join(b.uniqueName(out.Key(), name)), nil
}

func hasRawPointerArgument(args []rust.FunctionArgument) bool {
	for _, a := range args {
		if p, ok := a.Type.API.(*rust.PointerLikeType); ok && p.PointerKind == rust.Pointer {
			return true
		}
	}
	return false
}
