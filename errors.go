package assembler

import "github.com/hemashushu/xiaoxuan-core-assembly-sub000/internal/asmerr"

// The closed error taxonomy of §7 is implemented in internal/asmerr so
// that every internal package (resolver, emitter, canon, dataseg, ...) can
// construct and return these concrete error types without importing this
// root package, which itself depends on all of them. These aliases are
// the public, documented names callers of AssembleUnit match against with
// errors.As.
type (
	FunctionNotFoundError                  = asmerr.FunctionNotFoundError
	DataNotFoundError                      = asmerr.DataNotFoundError
	ExternalFunctionNotFoundError          = asmerr.ExternalFunctionNotFoundError
	ImportModuleNotFoundError              = asmerr.ImportModuleNotFoundError
	ExternalLibraryNotFoundError           = asmerr.ExternalLibraryNotFoundError
	LocalVariableNotFoundError             = asmerr.LocalVariableNotFoundError
	UnknownInstructionError                = asmerr.UnknownInstructionError
	IncorrectInstructionParameterTypeError = asmerr.IncorrectInstructionParameterTypeError
	IncorrectDataValueTypeError            = asmerr.IncorrectDataValueTypeError
	IncompleteControlFlowError             = asmerr.IncompleteControlFlowError
	DuplicateIdentifierError               = asmerr.DuplicateIdentifierError
)
