package preferences

import "errors"

var (
	ErrPreferenceNotFound = errors.New("preference not found")
	ErrInvalidKey         = errors.New("invalid preference key")
	ErrInvalidValue       = errors.New("preference value must be a JSON object")
	ErrValueTooLarge      = errors.New("preference value too large")
)
