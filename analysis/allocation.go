package analysis

import (
	"log/slog"

	"github.com/csnover/ritual/cpp"
	"github.com/csnover/ritual/database"
)

// AllocationConfig holds the thresholds for the allocation-place heuristic.
// The defaults come from upstream practice; they are configurable rather
// than derived.
type AllocationConfig struct {
	// MinSampleCount is the minimum number of observed occurrences needed
	// before the pointer/value ratio is trusted.
	MinSampleCount int

	// MaxValueFraction is the largest tolerated share of non-pointer
	// occurrences for a type to still be suggested movable.
	MaxValueFraction float64
}

// DefaultAllocationConfig returns the standard thresholds.
func DefaultAllocationConfig() AllocationConfig {
	return AllocationConfig{MinSampleCount: 5, MaxValueFraction: 0.3}
}

// Place is the advisor's verdict for one class.
type Place int

const (
	// PlaceMovable marks a cheap value-semantics wrapper candidate.
	PlaceMovable Place = iota

	// PlaceImmovable marks a heap-only handle-semantics wrapper.
	PlaceImmovable

	// PlaceIndeterminate means the data did not clear the thresholds; the
	// result is reported for manual override, never silently defaulted.
	PlaceIndeterminate
)

// String returns the string representation of the place.
func (p Place) String() string {
	switch p {
	case PlaceMovable:
		return "movable"
	case PlaceImmovable:
		return "immovable"
	default:
		return "indeterminate"
	}
}

// Suggestion is one advisory classification.
type Suggestion struct {
	Path   cpp.Path
	Place  Place
	Reason string
}

type typeStats struct {
	hasVirtualMethods bool
	pointersCount     int
	notPointersCount  int
}

// SuggestAllocationPlaces scans every function declaration's involved types
// and classifies each class as presumptively movable or immovable. The pass
// is advisory only and does not mutate the database; the explicit
// configuration list applied by ApplyAllocationPlaces is the only thing that
// sets the authoritative flag.
func SuggestAllocationPlaces(db *database.Database, cfg AllocationConfig, logger *slog.Logger) []Suggestion {
	if logger == nil {
		logger = slog.Default()
	}
	stats := make(map[string]*typeStats)
	get := func(path cpp.Path) *typeStats {
		key := path.Key()
		s, ok := stats[key]
		if !ok {
			s = &typeStats{}
			stats[key] = s
		}
		return s
	}

	for _, fn := range db.Functions() {
		if fn.Member != nil && fn.Member.IsVirtual {
			get(fn.Member.ClassPath).hasVirtualMethods = true
		}
		for _, t := range fn.AllInvolvedTypes() {
			tallyType(t, false, get)
		}
	}

	var out []Suggestion
	for _, decl := range db.Types() {
		if decl.Kind != database.TypeClass {
			continue
		}
		s, ok := stats[decl.Path.Key()]
		if !ok {
			out = append(out, Suggestion{
				Path:   decl.Path,
				Place:  PlaceIndeterminate,
				Reason: "no usage data",
			})
			continue
		}
		logger.Debug("allocation place stats",
			slog.String("type", decl.Path.String()),
			slog.Bool("virtual", s.hasVirtualMethods),
			slog.Int("pointers", s.pointersCount),
			slog.Int("not_pointers", s.notPointersCount))

		out = append(out, suggest(decl.Path, s, cfg))
	}

	for _, s := range out {
		if s.Place == PlaceIndeterminate {
			logger.Debug("cannot determine allocation place",
				slog.String("type", s.Path.String()),
				slog.String("reason", s.Reason))
		}
	}
	return out
}

func suggest(path cpp.Path, s *typeStats, cfg AllocationConfig) Suggestion {
	switch {
	case s.hasVirtualMethods:
		// Polymorphic types cannot be relocated without a copy or move
		// operation defined at the base.
		return Suggestion{Path: path, Place: PlaceImmovable, Reason: "has virtual methods"}
	case s.pointersCount == 0:
		return Suggestion{Path: path, Place: PlaceMovable, Reason: "never observed behind a pointer"}
	case s.pointersCount+s.notPointersCount < cfg.MinSampleCount:
		return Suggestion{Path: path, Place: PlaceIndeterminate, Reason: "not enough data"}
	case float64(s.notPointersCount)/float64(s.pointersCount+s.notPointersCount) > cfg.MaxValueFraction:
		return Suggestion{Path: path, Place: PlaceIndeterminate, Reason: "many non-pointer occurrences"}
	default:
		return Suggestion{Path: path, Place: PlaceImmovable, Reason: "mostly behind pointers"}
	}
}

// tallyType records one occurrence of every class reachable from t,
// distinguishing occurrences behind a pointer from the rest. A reference is
// not a pointer for this purpose.
func tallyType(t cpp.Type, behindPointer bool, get func(cpp.Path) *typeStats) {
	switch v := t.(type) {
	case *cpp.ClassType:
		s := get(v.Path)
		if behindPointer {
			s.pointersCount++
		} else {
			s.notPointersCount++
		}
		for _, arg := range v.Path.Last().TemplateArguments {
			tallyType(arg, false, get)
		}
	case *cpp.PointerLikeType:
		tallyType(v.Target, v.PointerKind == cpp.Pointer, get)
	case *cpp.FunctionPointerType:
		tallyType(v.Return, false, get)
		for _, arg := range v.Arguments {
			tallyType(arg, false, get)
		}
	}
}

// ApplyAllocationPlaces copies the explicit movable-types configuration onto
// every class declaration. This is the only mutation of the authoritative
// allocation-place flag.
func ApplyAllocationPlaces(db *database.Database, movableTypes []string) {
	movable := make(map[string]bool, len(movableTypes))
	for _, p := range movableTypes {
		movable[p] = true
	}
	for _, decl := range db.Types() {
		if decl.Kind == database.TypeClass {
			decl.IsMovable = movable[decl.Path.Key()]
		}
	}
}
