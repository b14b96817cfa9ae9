package asmerr

import "fmt"

// FunctionNotFoundError is returned when an identifier fails to resolve
// against the function name space.
type FunctionNotFoundError struct {
	Identifier string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function not found: %s", e.Identifier)
}

// DataNotFoundError is returned when an identifier fails to resolve
// against the data name space.
type DataNotFoundError struct {
	Identifier string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("data not found: %s", e.Identifier)
}

// ExternalFunctionNotFoundError is returned when an identifier fails to
// resolve against the external-function name space.
type ExternalFunctionNotFoundError struct {
	Identifier string
}

func (e *ExternalFunctionNotFoundError) Error() string {
	return fmt.Sprintf("external function not found: %s", e.Identifier)
}

// ImportModuleNotFoundError is returned when an import declaration refers
// to a module name absent from the configured dependency list.
type ImportModuleNotFoundError struct {
	Name string
}

func (e *ImportModuleNotFoundError) Error() string {
	return fmt.Sprintf("import module not found: %s", e.Name)
}

// ExternalLibraryNotFoundError is returned when an external declaration
// refers to a library name absent from the configured dependency list.
type ExternalLibraryNotFoundError struct {
	Name string
}

func (e *ExternalLibraryNotFoundError) Error() string {
	return fmt.Sprintf("external library not found: %s", e.Name)
}

// LocalVariableNotFoundError is returned when a local-variable name
// resolves in zero or in two-or-more simultaneously-reachable scopes.
type LocalVariableNotFoundError struct {
	Name     string
	Function string
}

func (e *LocalVariableNotFoundError) Error() string {
	return fmt.Sprintf("local variable not found: %s (in function %s)", e.Name, e.Function)
}

// UnknownInstructionError is returned when an instruction mnemonic has no
// entry in the Instruction Encoder's closed dispatch table.
type UnknownInstructionError struct {
	Name     string
	Function string
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction: %s (in function %s)", e.Name, e.Function)
}

// IncorrectInstructionParameterTypeError is returned when an argument to
// an instruction does not match the shape or type the mnemonic requires.
type IncorrectInstructionParameterTypeError struct {
	Expected    string
	Actual      string
	Instruction string
	Function    string
}

func (e *IncorrectInstructionParameterTypeError) Error() string {
	return fmt.Sprintf("incorrect parameter type for %s (in function %s): expected %s, got %s",
		e.Instruction, e.Function, e.Expected, e.Actual)
}

// IncorrectDataValueTypeError is returned when a data item's literal
// initializer does not match its declared type.
type IncorrectDataValueTypeError struct {
	Expected string
	Actual   string
	DataName string
}

func (e *IncorrectDataValueTypeError) Error() string {
	return fmt.Sprintf("incorrect data value type for %s: expected %s, got %s", e.DataName, e.Expected, e.Actual)
}

// IncompleteControlFlowError is returned when a function's control-flow
// stack is non-empty after its top-level expression has finished
// emitting.
type IncompleteControlFlowError struct {
	Path     string // e.g. "if >> block >> when"
	Function string
}

func (e *IncompleteControlFlowError) Error() string {
	return fmt.Sprintf("incomplete control flow in function %s: %s", e.Function, e.Path)
}

// DuplicateIdentifierError is returned when a source identifier is
// declared more than once within a name space where the data model
// mandates uniqueness (invariant (2)).
type DuplicateIdentifierError struct {
	Kind       string // e.g. "function", "data", "external function", "import alias"
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate %s identifier: %s", e.Kind, e.Identifier)
}
