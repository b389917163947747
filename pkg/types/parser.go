package types

// ParseResult represents the outcome of parsing one source file: either
// extracted symbols and references, or a structured error. Parsing never
// panics across the component boundary; a syntax error in one file must not
// abort indexing of the rest of the repository.
type ParseResult struct {
	FilePath string
	Language string

	// Extracted data
	Symbols    []Symbol
	References []Reference

	// Errors encountered during parsing. A file with errors is still stored
	// with raw content for full-text search, but contributes no symbols or
	// references.
	Errors []ParseError
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(filePath string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		FilePath: filePath,
		Line:     line,
		Column:   col,
		Message:  msg,
	})
}
