package certificates

import "errors"

var (
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrNameRequired        = errors.New("certificate name is required")
	ErrDateOrder           = errors.New("valid until must not be before issued on")
	ErrUnknownRef          = errors.New("staged change refers to an unknown certificate")
	ErrDuplicateRef        = errors.New("staged certificate ref already used")
	ErrUnknownOp           = errors.New("unknown staged change kind")
	ErrFileInUse           = errors.New("file belongs to a stored certificate")
)
