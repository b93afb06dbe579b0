package frame

import "errors"

// These are the recoverable abort conditions a TRY handler can catch
// (spec 4.F: "stack underflow, type mismatch" etc. are recoverable;
// "bad opcode, corrupt frame" are not and kill the frame instead).
var (
	ErrStackOverflow             = errors.New("frame: stack overflow")
	ErrStackUnderflow            = errors.New("frame: stack underflow")
	ErrScopeUnderflow            = errors.New("frame: scope underflow")
	ErrForUnderflow              = errors.New("frame: for-stack underflow")
	ErrTryUnderflow              = errors.New("frame: try-stack underflow")
	ErrForegroundAfterBackground = errors.New("frame: cannot go foreground after backgrounding")
)
