package types

import "errors"

// SymbolKind represents the kind of named entity a symbol declares
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindMethod    SymbolKind = "method"
	KindProperty  SymbolKind = "property"
	KindEnum      SymbolKind = "enum"
)

// AccessModifier represents the declared visibility of a class member
type AccessModifier string

const (
	AccessPublic    AccessModifier = "public"
	AccessPrivate   AccessModifier = "private"
	AccessProtected AccessModifier = "protected"
)

// AnonymousName is the sentinel recorded for entities that have no name of
// their own (anonymous functions, default-exported expressions).
const AnonymousName = "<anonymous>"

// Symbol represents a named code entity extracted from one source file.
// Line numbers are 1-indexed; column numbers are 0-indexed.
type Symbol struct {
	// Identification
	Name     string
	Kind     SymbolKind
	FilePath string // Relative to repository root

	// Location
	LineStart   int
	LineEnd     int
	ColumnStart int
	ColumnEnd   int

	// Content
	Signature     string // Rendered signature for callables
	Documentation string // Preceding doc comment, if any

	// Flags
	IsExported     bool
	IsAsync        bool           // Functions and methods only
	AccessModifier AccessModifier // Class members only; empty otherwise
}

// ValidateKind checks if the symbol kind is valid
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindFunction, KindClass, KindInterface, KindType, KindVariable,
		KindConstant, KindMethod, KindProperty, KindEnum:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// Validate performs comprehensive validation of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}

	if err := s.ValidateKind(); err != nil {
		return err
	}

	if s.FilePath == "" {
		return errors.New("file path is required")
	}

	if s.LineStart <= 0 || s.LineEnd <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}

	if s.LineStart > s.LineEnd {
		return errors.New("invalid position: start line must be before or equal to end line")
	}

	if s.AccessModifier != "" && s.Kind != KindMethod && s.Kind != KindProperty {
		return errors.New("only class members can have an access modifier")
	}

	return nil
}

// Key returns the identity of the symbol within one indexing run. The graph
// builder and the storage engine use it to correlate in-memory symbols with
// their assigned row ids.
func (s *Symbol) Key() SymbolKey {
	return SymbolKey{FilePath: s.FilePath, Name: s.Name, LineStart: s.LineStart}
}

// SymbolKey identifies a symbol before storage has assigned it an id.
type SymbolKey struct {
	FilePath  string
	Name      string
	LineStart int
}
