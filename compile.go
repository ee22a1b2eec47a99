package annotpdf

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// pdfCompiler abstracts the final HTML→PDF compilation to allow different
// backends. The compiler is a pass/fail black box: it either produces PDF
// bytes or a diagnostic error, never partial output.
type pdfCompiler interface {
	Compile(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// pdfOptions holds options for PDF compilation.
type pdfOptions struct {
	Footer *Footer
	Page   *PageSettings
}

// Paper dimensions in inches per page size, portrait orientation.
var paperSizes = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// marginBottomWithFooter leaves extra space for the footer.
const marginBottomWithFooter = 0.75

// defaultFontFamily is the standard font stack for PDF footers.
const defaultFontFamily = "sans-serif"

// rodCompiler compiles HTML to PDF using headless Chrome via go-rod.
// Rod downloads a managed Chromium on first run if none is found.
type rodCompiler struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// newRodCompiler creates a rodCompiler with the given timeout.
func newRodCompiler(timeout time.Duration) *rodCompiler {
	return &rodCompiler{timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (c *rodCompiler) ensureBrowser() error {
	if c.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	c.browser = rod.New().ControlURL(u)
	if err := c.browser.Connect(); err != nil {
		c.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	c.launcher = l
	return nil
}

// Close releases browser resources, killing any orphaned Chrome children.
func (c *rodCompiler) Close() error {
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	if c.launcher != nil {
		c.launcher.Kill()
		c.launcher = nil
	}
	return err
}

// Compile writes the HTML to a per-job temp file and renders it to PDF.
// No partial output is retained on timeout or failure.
func (c *rodCompiler) Compile(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp("", "annotpdf-*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp file: %v", ErrPDFGeneration, err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmpFile.WriteString(htmlContent); err != nil {
		_ = tmpFile.Close()
		return nil, fmt.Errorf("%w: writing temp file: %v", ErrPDFGeneration, err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing temp file: %v", ErrPDFGeneration, err)
	}

	return c.renderFromFile(ctx, tmpPath, opts)
}

// renderFromFile opens a local HTML file in headless Chrome and renders it
// to PDF. Returns explicit errors instead of panicking when browser
// operations fail.
func (c *rodCompiler) renderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := c.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := c.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, fmt.Errorf("%w: %w", ErrConversionTimeout, context.DeadlineExceeded)
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, wrapLoadErr(err, timeout)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// wrapLoadErr classifies a page-load failure. Timeout expiry stays its own
// failure kind, and the underlying context error stays reachable through
// errors.Is.
func wrapLoadErr(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrConversionTimeout, timeout, err)
	}
	return fmt.Errorf("%w: %v", ErrPageLoad, err)
}

// buildPDFOptions constructs proto.PagePrintToPDF from page settings and
// the optional footer.
func buildPDFOptions(opts *pdfOptions) *proto.PagePrintToPDF {
	ps := DefaultPageSettings()
	if opts != nil && opts.Page != nil {
		ps = opts.Page
	}

	dims, ok := paperSizes[strings.ToLower(ps.Size)]
	if !ok {
		dims = paperSizes[PageSizeLetter]
	}
	width, height := dims[0], dims[1]
	if strings.ToLower(ps.Orientation) == OrientationLandscape {
		width, height = height, width
	}

	margin := ps.Margin
	marginBottom := margin
	hasFooter := opts != nil && opts.Footer != nil
	if hasFooter && marginBottom < marginBottomWithFooter {
		marginBottom = marginBottomWithFooter
	}

	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(marginBottom),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true, // highlight colours are backgrounds
	}

	if hasFooter {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = "<span></span>" // Empty header
		pdfOpts.FooterTemplate = buildFooterTemplate(opts.Footer)
	}

	return pdfOpts
}

// buildFooterTemplate generates an HTML template for Chrome's native footer.
// Supports pageNumber and totalPages placeholders via CSS classes.
func buildFooterTemplate(f *Footer) string {
	if f == nil {
		return "<span></span>"
	}

	var parts []string

	if f.ShowPageNumber {
		parts = append(parts, `<span class="pageNumber"></span>/<span class="totalPages"></span>`)
	}
	if f.Date != "" {
		parts = append(parts, html.EscapeString(f.Date))
	}
	if f.Status != "" {
		parts = append(parts, html.EscapeString(f.Status))
	}
	if f.Text != "" {
		parts = append(parts, html.EscapeString(f.Text))
	}

	if len(parts) == 0 {
		return "<span></span>"
	}

	content := strings.Join(parts, " - ")

	textAlign := "right"
	switch f.Position {
	case "left":
		textAlign = "left"
	case "center":
		textAlign = "center"
	}

	return fmt.Sprintf(`<div style="font-size: 10px; font-family: %s; color: #aaa; width: 100%%; text-align: %s; padding: 0 0.5in;">%s</div>`, defaultFontFamily, textAlign, content)
}

func floatPtr(v float64) *float64 {
	return &v
}
