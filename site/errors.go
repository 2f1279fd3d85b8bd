package site

import "errors"

var (
	// ErrUnknownTalk signals a page whose code has no entry in the talk table.
	ErrUnknownTalk = errors.New("page references unknown talk")
	ErrNotLoaded   = errors.New("site not loaded")

	// ErrReservedOutput signals a content file that would overwrite a generated page.
	ErrReservedOutput = errors.New("output path is reserved")
)
