package pagemanager

import "errors"

// --- Error Definitions ---

var (
	ErrIoOpen      = errors.New("could not open page store")
	ErrIoCreate    = errors.New("could not create page store")
	ErrIoRead      = errors.New("could not read page")
	ErrIoWrite     = errors.New("could not write page")
	ErrOutOfSpace  = errors.New("not enough free space in page")
	ErrOutOfRange  = errors.New("page read out of range")
	ErrPageNotOpen = errors.New("page manager has no open page")
	// ErrTipOverflow means the cursor no longer fits its 16-bit field; treat
	// the page as corrupted.
	ErrTipOverflow = errors.New("could not create new tip pointer, page is corrupted")
	// ErrCorruptedTip means the tip points into the reserved header.
	ErrCorruptedTip = errors.New("tip is inside the page header, page is corrupted")
)
