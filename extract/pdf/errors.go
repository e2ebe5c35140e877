package pdf

import "errors"

// ErrToolNotFound is returned when the pdftotext binary is not on the PATH.
var ErrToolNotFound = errors.New("pdftotext not found")
