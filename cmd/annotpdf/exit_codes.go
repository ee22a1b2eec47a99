package main

import (
	"errors"
	"os"

	annotpdf "github.com/alnah/go-annotpdf"
	"github.com/alnah/go-annotpdf/internal/config"
)

// Exit codes
const (
	ExitSuccess = 0 // Export completed
	ExitGeneral = 1 // Pipeline or annotation error
	ExitUsage   = 2 // Bad flags or config
	ExitIO      = 3 // File read/write failure
	ExitBrowser = 4 // Browser launch or PDF compilation failure
)

// exitCodeFor maps an error to a process exit code. Joined errors report
// the code of the first recognised category.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess

	case errors.Is(err, ErrNoInput),
		errors.Is(err, ErrInvalidExtension),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, config.ErrEmptyConfigName),
		errors.Is(err, config.ErrConfigParse),
		errors.Is(err, config.ErrFieldTooLong),
		errors.Is(err, config.ErrInvalidColor),
		errors.Is(err, annotpdf.ErrInvalidPageSize),
		errors.Is(err, annotpdf.ErrInvalidOrientation),
		errors.Is(err, annotpdf.ErrInvalidMargin),
		errors.Is(err, annotpdf.ErrInvalidFooterPosition):
		return ExitUsage

	case errors.Is(err, ErrReadSource),
		errors.Is(err, ErrReadCSS),
		errors.Is(err, ErrWriteOut),
		errors.Is(err, ErrSidecarParse),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, os.ErrPermission):
		return ExitIO

	case errors.Is(err, annotpdf.ErrBrowserConnect),
		errors.Is(err, annotpdf.ErrPageCreate),
		errors.Is(err, annotpdf.ErrPageLoad),
		errors.Is(err, annotpdf.ErrConversionTimeout),
		errors.Is(err, annotpdf.ErrPDFGeneration):
		return ExitBrowser

	default:
		return ExitGeneral
	}
}
