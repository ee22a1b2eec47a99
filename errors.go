package annotpdf

import (
	"errors"

	"github.com/alnah/go-annotpdf/internal/marker"
	"github.com/alnah/go-annotpdf/internal/markerlex"
	"github.com/alnah/go-annotpdf/internal/rebuild"
)

// Sentinel errors for library operations. None of them are retryable by the
// pipeline itself; retries, if any, belong to the caller re-running the
// whole export.
var (
	ErrEmptySource = errors.New("source content cannot be empty")

	// Caller-supplied annotation data is malformed. Surfaced before any
	// external call.
	ErrHighlightOutOfRange = marker.ErrOffsetOutOfRange
	ErrHighlightInverted   = marker.ErrSpanInverted
	ErrHighlightUnbalanced = marker.ErrUnbalanced
	ErrCommentOrphaned     = marker.ErrCommentOrphaned
	ErrHighlightTextStale  = marker.ErrTextMismatch

	// The external converter produced output the lexer cannot confidently
	// parse. The error carries the offending context window.
	ErrCorruptedMarker = markerlex.ErrCorruptedMarker

	// Post-condition violations: pipeline bugs, never caller errors.
	ErrLeakedMarker    = rebuild.ErrLeakedMarker
	ErrMarkerMismatch  = rebuild.ErrStreamMismatch
	ErrUnmatchedMarker = rebuild.ErrUnmatchedMarker

	// Compiler (headless Chrome) failures, reported distinctly so callers
	// can tell "our bug" from "typesetting engine rejected valid input".
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// Compilation ran out of time. Kept distinct from ErrPageLoad so
	// callers can retry with a longer timeout instead of debugging the
	// document.
	ErrConversionTimeout = errors.New("conversion timed out")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Footer validation errors.
	ErrInvalidFooterPosition = errors.New("invalid footer position")
)
