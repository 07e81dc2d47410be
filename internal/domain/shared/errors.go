package shared

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Domain error codes
const (
	ErrCodeIO               = 1001
	ErrCodeInvalidMetadata  = 1002
	ErrCodeInvalidArgument  = 1003
	ErrCodeBackupConflict   = 1004
	ErrCodeBackupCorrupted  = 1005
	ErrCodeRestoreFailed    = 1006
	ErrCodeUnknownDimension = 1007
)

// Sentinels matched with errors.Is. Every error built by this package wraps
// the sentinel belonging to its code.
var (
	ErrIO               = errors.New("filesystem operation failed")
	ErrInvalidMetadata  = errors.New("invalid world-metadata format")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrBackupConflict   = errors.New("backup from an unfinished session already exists")
	ErrBackupCorrupted  = errors.New("copied file does not match its source")
	ErrRestoreFailed    = errors.New("restoring world files failed")
	ErrUnknownDimension = errors.New("unknown dimension")
)

func sentinelFor(code int) error {
	switch code {
	case ErrCodeIO:
		return ErrIO
	case ErrCodeInvalidMetadata:
		return ErrInvalidMetadata
	case ErrCodeInvalidArgument:
		return ErrInvalidArgument
	case ErrCodeBackupConflict:
		return ErrBackupConflict
	case ErrCodeBackupCorrupted:
		return ErrBackupCorrupted
	case ErrCodeRestoreFailed:
		return ErrRestoreFailed
	case ErrCodeUnknownDimension:
		return ErrUnknownDimension
	default:
		return errors.New("unknown error")
	}
}

// NewDomainError creates a new domain error using oops
func NewDomainError(code int, message string) error {
	return oops.
		Code(codeToString(code)).
		In("world").
		With("error_code", code).
		Wrapf(sentinelFor(code), "%s", message)
}

// NewDomainErrorf creates a new domain error with formatted message
func NewDomainErrorf(code int, format string, args ...interface{}) error {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// WrapDomainError wraps an existing error with domain context. The result
// matches both err and the sentinel of code.
func WrapDomainError(err error, code int, message string) error {
	return oops.
		Code(codeToString(code)).
		In("world").
		With("error_code", code).
		Wrapf(errors.Join(sentinelFor(code), err), "%s", message)
}

// HasCode reports whether an error with the given domain code appears
// anywhere in err's chain, including inside errors.Join groups.
func HasCode(err error, code int) bool {
	if err == nil {
		return false
	}
	want := codeToString(code)
	if want == "UNKNOWN_ERROR" {
		return false
	}
	// oops reports the deepest code of a nested chain, so outer wrappers are
	// also matched through their sentinel.
	if errors.Is(err, sentinelFor(code)) {
		return true
	}
	return walkChain(err, func(e error) bool {
		o, ok := oops.AsOops(e)
		return ok && o.Code() == want
	})
}

func walkChain(err error, match func(error) bool) bool {
	if err == nil {
		return false
	}
	if match(err) {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if walkChain(e, match) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return walkChain(u.Unwrap(), match)
	}
	return false
}

// codeToString converts int error code to string
func codeToString(code int) string {
	switch code {
	case ErrCodeIO:
		return "IO_FAILURE"
	case ErrCodeInvalidMetadata:
		return "INVALID_WORLD_METADATA"
	case ErrCodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case ErrCodeBackupConflict:
		return "BACKUP_CONFLICT"
	case ErrCodeBackupCorrupted:
		return "BACKUP_CORRUPTED"
	case ErrCodeRestoreFailed:
		return "RESTORE_FAILED"
	case ErrCodeUnknownDimension:
		return "UNKNOWN_DIMENSION"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Common domain error builders
func ErrIOf(err error, op, path string) error {
	return oops.
		Code(codeToString(ErrCodeIO)).
		In("world").
		With("error_code", ErrCodeIO).
		With("op", op).
		With("path", path).
		Wrapf(errors.Join(ErrIO, err), "%s %s", op, path)
}

func ErrInvalidArgumentf(format string, args ...interface{}) error {
	return NewDomainErrorf(ErrCodeInvalidArgument, format, args...)
}

func ErrMalformedMetadata(err error, path string) error {
	return WrapDomainError(err, ErrCodeInvalidMetadata, fmt.Sprintf("invalid world-metadata format in %s", path))
}
