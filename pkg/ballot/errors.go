package ballot

import (
	"golang.org/x/xerrors"
)

// ErrorKind is the closed taxonomy of §4.3/§7: every error the engine
// returns to a caller is wrapped with one of these.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindWrongState
	KindSignatureInvalid
	KindConstraintViolation
	KindAlreadyConfirmed
	KindStorageConflict
	KindProofInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindWrongState:
		return "WrongState"
	case KindSignatureInvalid:
		return "SignatureInvalid"
	case KindConstraintViolation:
		return "ConstraintViolation"
	case KindAlreadyConfirmed:
		return "AlreadyConfirmed"
	case KindStorageConflict:
		return "StorageConflict"
	case KindProofInvalid:
		return "ProofInvalid"
	default:
		return "Unknown"
	}
}

// StatusCode maps a Kind onto the HTTP status table of §7, without the core
// package depending on net/http.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindNotFound:
		return 404
	case KindWrongState, KindConstraintViolation, KindAlreadyConfirmed, KindProofInvalid:
		return 400
	case KindSignatureInvalid:
		return 401
	case KindStorageConflict:
		return 500
	default:
		return 500
	}
}

// Error is the typed error every exported engine operation returns on
// failure. It never carries randomness or secret key material in its
// message, per §7.
type Error struct {
	Kind ErrorKind
	err  error
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// newError wraps cause with xerrors.Errorf (preserving frame info for %+v)
// and tags it with kind.
func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, err: xerrors.Errorf(format, args...)}
}

// NewError is newError's exported form, for storage implementations outside
// this package that need to return taxonomy-conformant errors.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return newError(kind, format, args...)
}
