package shell

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

// RendererOptions configures template loading.
type RendererOptions struct {
	// Dev reparses templates from Dir on every render.
	Dev bool
	Dir string
}

// Renderer executes the page layout and its fragments.
type Renderer struct {
	dev  bool
	fsys fs.FS
	tmpl *template.Template
}

// NewRenderer parses the templates once. In dev mode they are read from opts.Dir
// instead of the embedded copy and reparsed per render.
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	r := &Renderer{dev: opts.Dev}
	if opts.Dev {
		if strings.TrimSpace(opts.Dir) == "" {
			return nil, fmt.Errorf("shell: dev mode needs a templates dir")
		}
		r.fsys = os.DirFS(opts.Dir)
	} else {
		sub, err := fs.Sub(templatesFS, "templates")
		if err != nil {
			return nil, fmt.Errorf("shell: embedded templates: %w", err)
		}
		r.fsys = sub
	}
	t, err := parseTemplates(r.fsys)
	if err != nil {
		return nil, err
	}
	r.tmpl = t
	return r, nil
}

type arrowData struct {
	MountID string
	Arrow   Arrow
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	funcMap := template.FuncMap{
		"arrowData": func(mountID string, a Arrow) arrowData { return arrowData{MountID: mountID, Arrow: a} },
	}
	t, err := template.New("_root").Funcs(funcMap).ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("shell: parse templates: %w", err)
	}
	for _, name := range []string{"base", "catalog"} {
		if t.Lookup(name) == nil {
			return nil, fmt.Errorf("shell: template %q not defined", name)
		}
	}
	return t, nil
}

func (r *Renderer) templates() (*template.Template, error) {
	if r.dev {
		return parseTemplates(r.fsys)
	}
	return r.tmpl, nil
}

// Page executes the base layout into w. The output is buffered so a failed
// render never leaves a half-written page.
func (r *Renderer) Page(w io.Writer, v PageView) error {
	html, err := r.Fragment("base", v)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, html)
	return err
}

// Fragment executes a named template and returns its output.
func (r *Renderer) Fragment(name string, data any) (string, error) {
	t, err := r.templates()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("shell: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// Catalog renders the catalog section fragment.
func (r *Renderer) Catalog(v CatalogView) (string, error) {
	return r.Fragment("catalog", v)
}

// VerifyMount renders a sample page and checks the mount contract.
func (r *Renderer) VerifyMount(sample PageView) error {
	html, err := r.Fragment("base", sample)
	if err != nil {
		return err
	}
	return CheckMount(strings.NewReader(html))
}
