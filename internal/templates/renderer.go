// Package templates renders the HTML emails: a master layout composed with a
// header, one content fragment and a footer.
package templates

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Meeting-BaaS/emails/pkg/mailer"
)

//go:embed html/*.html
var embedded embed.FS

// Files returns the embedded fragments rooted at their directory.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "html")
	if err != nil {
		panic(err)
	}
	return sub
}

// Layout names the content and footer fragments wrapped by master.html and
// header.html.
type Layout struct {
	Content string
	Footer  string
}

var (
	Broadcast          = Layout{Content: "content.html", Footer: "footer.html"}
	ErrorReport        = Layout{Content: "error-report-content.html", Footer: "error-report-footer.html"}
	ErrorReportReply   = Layout{Content: "error-report-reply-content.html", Footer: "error-report-footer.html"}
	InsufficientTokens = Layout{Content: "insufficient-tokens-content.html", Footer: "footer.html"}
	PaymentActivation  = Layout{Content: "payment-activation-content.html", Footer: "footer.html"}
	UsageReport        = Layout{Content: "usage-report-content.html", Footer: "footer.html"}
	VerificationLink   = Layout{Content: "verification-link-content.html", Footer: "footer.html"}
	ResetPassword      = Layout{Content: "reset-password-content.html", Footer: "footer.html"}
)

const (
	masterFile = "master.html"
	headerFile = "header.html"
)

// Template is a compiled layout.
type Template struct {
	tmpl        *template.Template
	frontmatter mailer.Frontmatter
}

// Subject is the subject from the content frontmatter, empty when the
// fragment has none.
func (t *Template) Subject() string {
	return t.frontmatter.Subject
}

// Render executes the layout with data.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.String(), nil
}

// Renderer compiles layouts from a filesystem and caches the result.
type Renderer struct {
	fs fs.FS

	mu    sync.RWMutex
	cache map[Layout]*Template
}

// NewRenderer creates a renderer reading fragments from fsys. Use Files()
// for the embedded set.
func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{
		fs:    fsys,
		cache: make(map[Layout]*Template),
	}
}

// Compose loads and compiles the layout, or returns the cached compilation.
func (r *Renderer) Compose(ctx context.Context, l Layout) (*Template, error) {
	r.mu.RLock()
	if t, ok := r.cache[l]; ok {
		r.mu.RUnlock()
		return t, nil
	}
	r.mu.RUnlock()

	t, err := r.compile(ctx, l)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[l]; ok {
		return cached, nil
	}
	r.cache[l] = t
	return t, nil
}

// Render composes l and executes it with data in one call.
func (r *Renderer) Render(ctx context.Context, l Layout, data any) (string, error) {
	t, err := r.Compose(ctx, l)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

func (r *Renderer) compile(ctx context.Context, l Layout) (*Template, error) {
	names := []string{masterFile, headerFile, l.Content, l.Footer}
	sources := make([][]byte, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := fs.ReadFile(r.fs, name)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
			}
			sources[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fm, content, err := mailer.SplitFrontmatter(sources[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, l.Content, err)
	}

	root := template.New(path.Base(masterFile)).Funcs(template.FuncMap{
		"preheader": func() string { return fm.Preheader },
	})
	parts := []struct {
		tmpl *template.Template
		name string
		src  []byte
	}{
		{root, masterFile, sources[0]},
		{root.New("header"), headerFile, sources[1]},
		{root.New("content"), l.Content, content},
		{root.New("footer"), l.Footer, sources[3]},
	}
	for _, p := range parts {
		if _, err := p.tmpl.Parse(string(p.src)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParse, p.name, err)
		}
	}

	return &Template{tmpl: root, frontmatter: fm}, nil
}
