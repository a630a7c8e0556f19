package erd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Format identifies a rendered diagram artifact type.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// DefaultBaseName is the file stem for rendered artifacts.
const DefaultBaseName = "erd_mysql"

// ParseFormats converts a comma-separated list such as "png,svg" into
// Formats. Entries are trimmed and lower-cased, duplicates collapse, and an
// unknown entry is an error.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		f := Format(part)
		switch f {
		case FormatPNG, FormatSVG, FormatPDF:
		default:
			return nil, fmt.Errorf("unknown ERD format %q (supported: png, svg, pdf)", part)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Renderer turns Mermaid diagram source into image files. Implementations
// produce every requested format or fail as a unit.
type Renderer interface {
	Render(ctx context.Context, source string, formats []Format) (map[Format]string, error)
}

// ChromeRenderer renders diagrams by loading them into a headless Chrome
// instance and capturing the laid-out SVG. Rendering needs a Chrome or
// Chromium binary on the host; diagram generation itself never does.
type ChromeRenderer struct {
	// OutputDir receives the rendered files.
	OutputDir string
	// BaseName is the file stem, DefaultBaseName unless overridden.
	BaseName string
	// ExecPath points at a specific browser binary. Empty means let the
	// browser allocator search the usual install locations.
	ExecPath string
	// Timeout bounds one whole Render call, zero means no limit.
	Timeout time.Duration

	logger *zap.Logger
}

// NewChromeRenderer creates a renderer writing into outputDir.
func NewChromeRenderer(outputDir string, logger *zap.Logger) *ChromeRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeRenderer{
		OutputDir: outputDir,
		BaseName:  DefaultBaseName,
		Timeout:   60 * time.Second,
		logger:    logger,
	}
}

// Render loads source into a browser page, waits for the diagram SVG to
// appear, and captures every requested format. The returned map gives the
// written path per format. Any failure aborts the whole call.
func (r *ChromeRenderer) Render(ctx context.Context, source string, formats []Format) (map[Format]string, error) {
	if len(formats) == 0 {
		return map[Format]string{}, nil
	}
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	pagePath, cleanup, err := writeRenderPage(source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, r.Timeout)
		defer cancel()
	}

	r.logger.Debug("loading diagram page", zap.String("page", pagePath))
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+pagePath),
		chromedp.WaitVisible("#mermaid-diagram svg", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to render diagram in browser: %w", err)
	}

	base := r.BaseName
	if base == "" {
		base = DefaultBaseName
	}
	results := make(map[Format]string, len(formats))
	for _, f := range formats {
		path := filepath.Join(r.OutputDir, base+"."+string(f))
		var err error
		switch f {
		case FormatPNG:
			err = r.capturePNG(browserCtx, path)
		case FormatSVG:
			err = r.captureSVG(browserCtx, path)
		case FormatPDF:
			err = r.capturePDF(browserCtx, path)
		default:
			err = fmt.Errorf("unknown ERD format %q", f)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", f, err)
		}
		r.logger.Info("rendered diagram", zap.String("format", string(f)), zap.String("path", path))
		results[f] = path
	}
	return results, nil
}

func (r *ChromeRenderer) capturePNG(ctx context.Context, path string) error {
	var buf []byte
	if err := chromedp.Run(ctx,
		chromedp.Screenshot("#mermaid-diagram", &buf, chromedp.NodeVisible, chromedp.ByQuery),
	); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (r *ChromeRenderer) captureSVG(ctx context.Context, path string) error {
	var svg string
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(`document.querySelector('#mermaid-diagram svg').outerHTML`, &svg),
	); err != nil {
		return err
	}
	if svg == "" {
		return fmt.Errorf("no svg element in rendered page")
	}
	return os.WriteFile(path, []byte(svg), 0o644)
}

func (r *ChromeRenderer) capturePDF(ctx context.Context, path string) error {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		// A4 portrait, sizes in inches
		data, _, err := page.PrintToPDF().
			WithPaperWidth(8.27).
			WithPaperHeight(11.69).
			WithPrintBackground(true).
			Do(ctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	})); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// renderPage is the HTML shell the diagram renders inside. Mermaid comes
// from the jsdelivr CDN, so rendering needs network access.
const renderPage = `<!DOCTYPE html>
<html>
<head>
    <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
    <script>
        mermaid.initialize({ startOnLoad: true, theme: 'default' });
    </script>
    <style>
        body { margin: 20px; background: white; }
        #mermaid-diagram { display: inline-block; }
    </style>
</head>
<body>
    <div id="mermaid-diagram" class="mermaid">
%s
    </div>
</body>
</html>
`

// writeRenderPage writes the HTML shell with the diagram source embedded to
// a temp file and returns its path with a cleanup func.
func writeRenderPage(source string) (string, func(), error) {
	f, err := os.CreateTemp("", "schemaforge-erd-*.html")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create render page: %w", err)
	}
	if _, err := fmt.Fprintf(f, renderPage, source); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write render page: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write render page: %w", err)
	}
	return f.Name(), func() { _ = os.Remove(f.Name()) }, nil
}
