package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// ReferenceType represents the kind of usage a reference records
type ReferenceType string

const (
	RefImport         ReferenceType = "import"
	RefCall           ReferenceType = "call"
	RefPropertyAccess ReferenceType = "property_access"
	RefTypeReference  ReferenceType = "type_reference"
	RefExtends        ReferenceType = "extends"
	RefImplements     ReferenceType = "implements"
)

// Import kinds recorded in reference metadata under the "kind" key.
const (
	ImportDefault    = "default"
	ImportNamed      = "named"
	ImportNamespace  = "namespace"
	ImportSideEffect = "side_effect"
	ImportRequire    = "require"
)

// Reference represents a located usage of a name within a file.
// LineNumber is 1-indexed; ColumnNumber is 0-indexed.
type Reference struct {
	FilePath     string // Referencing file, relative to repository root
	TargetName   string
	Type         ReferenceType
	LineNumber   int
	ColumnNumber int

	// Metadata carries reference-type-specific context. For imports: the
	// import source string under "source", the import kind under "kind",
	// and the local alias under "alias" when present.
	Metadata map[string]string
}

// ValidateType checks if the reference type is valid
func (r *Reference) ValidateType() error {
	switch r.Type {
	case RefImport, RefCall, RefPropertyAccess, RefTypeReference, RefExtends, RefImplements:
		return nil
	default:
		return errors.New("invalid reference type")
	}
}

// Validate performs comprehensive validation of the reference
func (r *Reference) Validate() error {
	if r.TargetName == "" {
		return errors.New("reference target name is required")
	}
	if r.FilePath == "" {
		return errors.New("file path is required")
	}
	if err := r.ValidateType(); err != nil {
		return err
	}
	if r.LineNumber <= 0 {
		return errors.New("line number must be positive")
	}
	return nil
}

// ImportSource returns the import source string for import references,
// or "" for other reference types.
func (r *Reference) ImportSource() string {
	if r.Type != RefImport {
		return ""
	}
	return r.Metadata["source"]
}

// MetadataHash returns a reproducible SHA-256 hex digest of the reference
// metadata. Go's JSON encoder writes map keys in sorted order, which gives
// the canonical representation the dedup key depends on: the same metadata
// always hashes to the same digest, regardless of insertion order.
func (r *Reference) MetadataHash() string {
	if len(r.Metadata) == 0 {
		return emptyMetadataHash
	}
	data, err := json.Marshal(r.Metadata)
	if err != nil {
		// map[string]string cannot fail to marshal
		data = []byte("{}")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var emptyMetadataHash = func() string {
	sum := sha256.Sum256([]byte("{}"))
	return hex.EncodeToString(sum[:])
}()
