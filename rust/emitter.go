package rust

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/csnover/ritual/sink"
)

// Emitter renders generated Rust items into source files: lib.rs with the
// module list, ffi.rs with the extern block, and one file per top-level
// module.
type Emitter struct {
	Crate  string
	Logger *slog.Logger
}

// Generate writes the whole crate source for db into out.
func (e *Emitter) Generate(ctx context.Context, db *Database, out sink.OutputSink) error {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root := Path{e.Crate}
	var lib bytes.Buffer
	lib.WriteString("pub mod ffi;\n")

	for _, item := range db.Children(root) {
		module, ok := item.(*Module)
		if !ok {
			return fmt.Errorf("%w: crate root child %s is a %s, expected a module",
				ErrMalformedInput, item.ItemPath(), item.ItemKind())
		}
		fmt.Fprintf(&lib, "pub mod %s;\n", module.Path.Last())

		var buf bytes.Buffer
		for _, child := range db.Children(module.Path) {
			if err := e.emitItem(&buf, child, db); err != nil {
				return fmt.Errorf("module %s: %w", module.Path, err)
			}
		}
		name := module.Path.Last() + ".rs"
		if err := out.WriteFile(ctx, name, buf.Bytes()); err != nil {
			return err
		}
		logger.Debug("wrote module file", slog.String("file", name))
	}

	if err := out.WriteFile(ctx, "ffi.rs", e.ffiFile(db)); err != nil {
		return err
	}
	return out.WriteFile(ctx, "lib.rs", lib.Bytes())
}

// EmitItem renders a single item; exported for tests and callers that
// assemble files themselves.
func (e *Emitter) EmitItem(buf *bytes.Buffer, item Item, db *Database) error {
	return e.emitItem(buf, item, db)
}

func (e *Emitter) emitItem(buf *bytes.Buffer, item Item, db *Database) error {
	switch v := item.(type) {
	case *Module:
		return e.emitModule(buf, v, db)
	case *Struct:
		return e.emitStruct(buf, v, db)
	case *EnumValue:
		e.emitEnumValue(buf, v)
		return nil
	case *Function:
		return e.emitFunction(buf, v)
	case *FFIFunction:
		// Declarations render together inside the extern block.
		return nil
	default:
		return fmt.Errorf("%w: cannot render item kind %s", ErrMalformedInput, item.ItemKind())
	}
}

func (e *Emitter) emitModule(buf *bytes.Buffer, m *Module, db *Database) error {
	writeDoc(buf, m.Doc)
	fmt.Fprintf(buf, "pub mod %s {\n", m.Path.Last())
	for _, child := range db.Children(m.Path) {
		if err := e.emitItem(buf, child, db); err != nil {
			return err
		}
	}
	buf.WriteString("}\n")
	return nil
}

func (e *Emitter) emitStruct(buf *bytes.Buffer, s *Struct, db *Database) error {
	writeDoc(buf, s.Doc)
	visibility := ""
	if s.IsPublic {
		visibility = "pub "
	}
	name := s.Path.Last()
	switch s.StructKind {
	case EnumWrapper:
		buf.WriteString("#[derive(Debug, Clone, Copy, PartialEq, Eq)]\n")
		buf.WriteString("#[repr(transparent)]\n")
		fmt.Fprintf(buf, "%sstruct %s(pub ::std::os::raw::c_int);\n\n", visibility, name)
	case MovableClassWrapper:
		buf.WriteString("#[repr(C)]\n")
		fmt.Fprintf(buf, "%sstruct %s {\n    _data: [u8; 0],\n}\n\n", visibility, name)
	case ImmovableClassWrapper:
		buf.WriteString("#[repr(C)]\n")
		fmt.Fprintf(buf, "%sstruct %s {\n    _private: [u8; 0],\n}\n\n", visibility, name)
	default:
		return fmt.Errorf("%w: struct kind %s", ErrMalformedInput, s.StructKind)
	}

	children := db.Children(s.Path)
	if len(children) == 0 {
		return nil
	}
	fmt.Fprintf(buf, "impl %s {\n", name)
	for _, child := range children {
		if err := e.emitItem(buf, child, db); err != nil {
			return err
		}
	}
	buf.WriteString("}\n\n")
	return nil
}

func (e *Emitter) emitEnumValue(buf *bytes.Buffer, v *EnumValue) {
	writeDoc(buf, v.Doc)
	parent, _ := v.Path.Parent()
	structPath := parent.FullName(e.Crate)
	fmt.Fprintf(buf, "pub const %s: %s = %s(%d);\n",
		v.Path.Last(), structPath, structPath, v.Value)
}

func (e *Emitter) ffiFile(db *Database) []byte {
	var buf bytes.Buffer
	buf.WriteString("extern \"C\" {\n")
	for _, f := range db.FFIFunctions() {
		args := make([]string, len(f.Arguments))
		for i, arg := range f.Arguments {
			args[i] = fmt.Sprintf("%s: %s", arg.Name, ToCode(arg.Type, e.Crate))
		}
		ret := ""
		if _, isUnit := f.Return.(*UnitType); !isUnit {
			ret = " -> " + ToCode(f.Return, e.Crate)
		}
		fmt.Fprintf(&buf, "    pub fn %s(%s)%s;\n", f.Path.Last(), strings.Join(args, ", "), ret)
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

func (e *Emitter) emitFunction(buf *bytes.Buffer, f *Function) error {
	body, err := e.generateFFICall(f)
	if err != nil {
		return fmt.Errorf("function %s: %w", f.Path, err)
	}

	args, err := e.argTexts(f.Arguments)
	if err != nil {
		return fmt.Errorf("function %s: %w", f.Path, err)
	}

	returnType := ""
	if _, isUnit := f.Return.API.(*UnitType); !isUnit {
		returnType = " -> " + ToCode(f.Return.API, e.Crate)
	}

	// Lifetime parameters are the set of named lifetimes appearing in the
	// argument and return API types.
	seen := make(map[string]bool)
	var lifetimes []string
	for _, arg := range f.Arguments {
		collectLifetimes(arg.Type.API, seen, &lifetimes)
	}
	collectLifetimes(f.Return.API, seen, &lifetimes)
	lifetimesText := ""
	if len(lifetimes) > 0 {
		quoted := make([]string, len(lifetimes))
		for i, l := range lifetimes {
			quoted[i] = "'" + l
		}
		lifetimesText = "<" + strings.Join(quoted, ", ") + ">"
	}

	writeDoc(buf, f.Doc)
	maybePub := ""
	if f.IsPublic {
		maybePub = "pub "
	}
	maybeUnsafe := ""
	if f.IsUnsafe {
		maybeUnsafe = "unsafe "
	}
	fmt.Fprintf(buf, "%s%sfn %s%s(%s)%s {\n%s\n}\n\n",
		maybePub, maybeUnsafe, f.Path.Last(), lifetimesText,
		strings.Join(args, ", "), returnType, body)
	return nil
}

// argTexts renders the declaration form of each argument. The receiver is
// the argument named "self"; any receiver indirection other than a reference
// or plain value is a malformed-input contract violation.
func (e *Emitter) argTexts(args []FunctionArgument) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg.Name == "self" {
			switch t := arg.Type.API.(type) {
			case *CommonType:
				out = append(out, "self")
			case *PointerLikeType:
				if t.PointerKind != Reference {
					return nil, fmt.Errorf("%w: self argument with pointer indirection", ErrMalformedInput)
				}
				lifetime := ""
				if t.Lifetime != "" {
					lifetime = "'" + t.Lifetime + " "
				}
				if t.IsConst {
					out = append(out, "&"+lifetime+"self")
				} else {
					out = append(out, "&"+lifetime+"mut self")
				}
			default:
				return nil, fmt.Errorf("%w: self argument of kind %s", ErrMalformedInput, arg.Type.API.Kind())
			}
			continue
		}

		// A by-value argument whose FFI slot is a mutable pointer must be a
		// mut local so its address can be taken.
		maybeMut := ""
		if arg.Type.Conversion == ConvValueToPtr {
			if ffi, ok := arg.Type.FFI.(*PointerLikeType); ok && !ffi.IsConst {
				maybeMut = "mut "
			}
		}
		out = append(out, fmt.Sprintf("%s%s: %s", maybeMut, arg.Name, ToCode(arg.Type.API, e.Crate)))
	}
	return out, nil
}

// generateFFICall builds the wrapper body: argument conversion out of API
// form, the foreign call inside the narrowest unsafe region, and result
// conversion back into API form.
func (e *Emitter) generateFFICall(f *Function) (string, error) {
	unsafeStart, unsafeEnd := "unsafe { ", " }"
	if f.IsUnsafe {
		unsafeStart, unsafeEnd = "", ""
	}

	slots := len(f.Arguments)
	if f.ReturnFFIIndex != nil {
		slots++
	}
	finalArgs := make([]string, slots)
	filled := make([]bool, slots)

	for _, arg := range f.Arguments {
		if arg.FFIIndex < 0 || arg.FFIIndex >= slots {
			return "", fmt.Errorf("%w: argument %s has FFI index %d out of range", ErrMalformedInput, arg.Name, arg.FFIIndex)
		}
		code := arg.Name
		switch arg.Type.Conversion {
		case ConvNone:
		case ConvOptionRefToPtr:
			return "", fmt.Errorf("%w: optional reference arguments are not supported in call position", ErrMalformedInput)
		case ConvRefToPtr:
			if lastIsConst(arg.Type.API) && !lastIsConst(arg.Type.FFI) {
				// Only the non-const FFI slot exists; cross through a
				// const-correct intermediate cast.
				intermediate := withConst(arg.Type.FFI, true)
				code = fmt.Sprintf("%s as %s as %s", code,
					ToCode(intermediate, e.Crate), ToCode(arg.Type.FFI, e.Crate))
			} else {
				code = fmt.Sprintf("%s as %s", code, ToCode(arg.Type.FFI, e.Crate))
			}
		case ConvValueToPtr, ConvBoxToPtr:
			ffi, ok := arg.Type.FFI.(*PointerLikeType)
			if !ok {
				return "", fmt.Errorf("%w: pointer FFI slot expected for argument %s", ErrMalformedInput, arg.Name)
			}
			if arg.Type.Conversion == ConvBoxToPtr {
				if ffi.IsConst {
					code += ".as_ptr()"
				} else {
					code += ".as_mut_ptr()"
				}
			} else {
				addr := "&mut "
				if ffi.IsConst {
					addr = "&"
				}
				code = fmt.Sprintf("%s%s as %s", addr, code, ToCode(arg.Type.FFI, e.Crate))
			}
		case ConvFlagsToUInt:
			code += ".to_int() as ::std::os::raw::c_uint"
		}
		finalArgs[arg.FFIIndex] = code
		filled[arg.FFIIndex] = true
	}

	var b strings.Builder
	var resultVar string
	if f.ReturnFFIIndex != nil {
		// The return value arrives through a caller-supplied out-location.
		resultVar = "object"
		for i := 2; argNameTaken(f.Arguments, resultVar); i++ {
			resultVar = fmt.Sprintf("object%d", i)
		}
		if f.Return.Conversion == ConvBoxToPtr {
			// The out-location receives a raw pointer that the owning
			// handle takes over after the call.
			box, ok := f.Return.API.(*CommonType)
			if !ok || len(box.GenericArguments) != 1 {
				return "", fmt.Errorf("%w: owning handle return type must carry one generic argument", ErrMalformedInput)
			}
			inner := ToCode(box.GenericArguments[0], e.Crate)
			fmt.Fprintf(&b, "{\nlet mut %s: *mut %s = ::std::ptr::null_mut();\n", resultVar, inner)
		} else {
			structName := ToCode(f.Return.API, e.Crate)
			fmt.Fprintf(&b, "{\nlet mut %s: %s = %s::cpp_utils::new_uninitialized::NewUninitialized::new_uninitialized()%s;\n",
				resultVar, structName, unsafeStart, unsafeEnd)
		}
		idx := *f.ReturnFFIIndex
		if idx < 0 || idx >= slots {
			return "", fmt.Errorf("%w: return slot index %d out of range", ErrMalformedInput, idx)
		}
		if filled[idx] {
			return "", fmt.Errorf("%w: return slot index %d collides with an argument", ErrMalformedInput, idx)
		}
		finalArgs[idx] = "&mut " + resultVar
		filled[idx] = true
	}

	for i, ok := range filled {
		if !ok {
			return "", fmt.Errorf("%w: FFI argument slot %d is unassigned", ErrMalformedInput, i)
		}
	}

	call := fmt.Sprintf("%s%s(%s)%s", unsafeStart,
		f.FFIPath.FullName(e.Crate), strings.Join(finalArgs, ", "), unsafeEnd)

	if resultVar != "" {
		if f.Return.Conversion == ConvBoxToPtr {
			fmt.Fprintf(&b, "%s;\n%s::cpp_utils::CppBox::new(%s)%s\n}",
				call, unsafeStart, resultVar, unsafeEnd)
		} else {
			fmt.Fprintf(&b, "%s;\n%s\n}", call, resultVar)
		}
		return b.String(), nil
	}
	return e.convertFromFFI(f.Return, call, f.IsUnsafe, true)
}

// convertFromFFI wraps an expression of the return's FFI type so it yields
// the API type.
func (e *Emitter) convertFromFFI(ret FinalType, expression string, inUnsafeContext, useResultVar bool) (string, error) {
	if ret.Conversion == ConvNone {
		return expression, nil
	}
	unsafeStart, unsafeEnd := "unsafe { ", " }"
	if inUnsafeContext {
		unsafeStart, unsafeEnd = "", ""
	}

	prologue, source := "", expression
	if useResultVar {
		prologue = fmt.Sprintf("let ffi_result = %s;\n", expression)
		source = "ffi_result"
	}

	switch ret.Conversion {
	case ConvRefToPtr, ConvOptionRefToPtr:
		apiType := ret.API
		if ret.Conversion == ConvOptionRefToPtr {
			opt, ok := apiType.(*CommonType)
			if !ok || len(opt.GenericArguments) != 1 {
				return "", fmt.Errorf("%w: optional reference return type must be Option with one argument", ErrMalformedInput)
			}
			apiType = opt.GenericArguments[0]
		}
		accessor := "as_mut"
		if lastIsConst(apiType) {
			accessor = "as_ref"
		}
		unwrap := ""
		if ret.Conversion == ConvRefToPtr {
			// Null here means the native side broke the non-null contract.
			unwrap = `.expect("Attempted to convert null pointer to reference")`
		}
		return fmt.Sprintf("%s%s%s.%s()%s%s", prologue, unsafeStart, source, accessor, unsafeEnd, unwrap), nil

	case ConvValueToPtr:
		return fmt.Sprintf("%s%s*%s%s", prologue, unsafeStart, source, unsafeEnd), nil

	case ConvBoxToPtr:
		return fmt.Sprintf("%s%s::cpp_utils::CppBox::new(%s)%s", prologue, unsafeStart, source, unsafeEnd), nil

	case ConvFlagsToUInt:
		flags, ok := ret.API.(*CommonType)
		if !ok {
			return "", fmt.Errorf("%w: flags return type must be a named type", ErrMalformedInput)
		}
		bare := Common(flags.Path)
		return fmt.Sprintf("%s%s::from_int(%s as i32)", prologue, ToCode(bare, e.Crate), source), nil

	default:
		return "", fmt.Errorf("%w: return conversion %s", ErrMalformedInput, ret.Conversion)
	}
}

func argNameTaken(args []FunctionArgument, name string) bool {
	for _, arg := range args {
		if arg.Name == name {
			return true
		}
	}
	return false
}

func writeDoc(buf *bytes.Buffer, doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(doc, "\n"), "\n") {
		buf.WriteString("/// ")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
}
