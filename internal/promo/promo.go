// Package promo loads the "new artifacts" block shown below the catalog grid.
package promo

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.md
var embedded embed.FS

const slug = "new_artifacts"

// ErrNotFound is returned when neither the requested nor the fallback language has a block.
var ErrNotFound = errors.New("promo: content not found")

// Block is the rendered promo block.
type Block struct {
	Lang        string
	Title       string
	Heading     string
	Image       string
	ImageAlt    string
	ReadMore    string
	ReadMoreURL string
	Body        template.HTML
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Heading     string `yaml:"heading"`
	Image       string `yaml:"image"`
	ImageAlt    string `yaml:"image_alt"`
	ReadMore    string `yaml:"read_more"`
	ReadMoreURL string `yaml:"read_more_url"`
}

// Source renders promo markdown from a filesystem and caches the result per language.
type Source struct {
	fsys     fs.FS
	dir      string
	fallback string
	md       goldmark.Markdown
	policy   *bluemonday.Policy

	mu    sync.RWMutex
	cache map[string]Block
}

// Embedded returns a Source over the promo copy compiled into the binary.
func Embedded(fallback string) *Source {
	return NewSource(embedded, "content", fallback)
}

// NewSource reads <dir>/new_artifacts.<lang>.md files from fsys.
func NewSource(fsys fs.FS, dir, fallback string) *Source {
	return &Source{
		fsys:     fsys,
		dir:      dir,
		fallback: fallback,
		md:       goldmark.New(),
		policy:   newPolicy(),
		cache:    map[string]Block{},
	}
}

func newPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("p", "span")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Get returns the block for lang, falling back to the default language.
func (s *Source) Get(lang string) (Block, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if b, ok := s.cached(lang); ok {
		return b, nil
	}
	b, err := s.load(lang)
	if errors.Is(err, fs.ErrNotExist) && lang != s.fallback {
		b, err = s.load(s.fallback)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Block{}, ErrNotFound
		}
		return Block{}, err
	}
	s.mu.Lock()
	s.cache[lang] = b
	s.mu.Unlock()
	return b, nil
}

func (s *Source) cached(lang string) (Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.cache[lang]
	return b, ok
}

func (s *Source) load(lang string) (Block, error) {
	file := path.Join(s.dir, slug+"."+lang+".md")
	raw, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		return Block{}, err
	}
	fm, body := splitFrontMatter(string(raw))
	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Block{}, fmt.Errorf("promo: parse front matter %s: %w", file, err)
		}
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(body), &buf); err != nil {
		return Block{}, fmt.Errorf("promo: render %s: %w", file, err)
	}
	return Block{
		Lang:        lang,
		Title:       strings.TrimSpace(front.Title),
		Heading:     strings.TrimSpace(front.Heading),
		Image:       strings.TrimSpace(front.Image),
		ImageAlt:    strings.TrimSpace(front.ImageAlt),
		ReadMore:    strings.TrimSpace(front.ReadMore),
		ReadMoreURL: strings.TrimSpace(front.ReadMoreURL),
		// sanitized above, safe to mark as HTML
		Body: template.HTML(strings.TrimSpace(s.policy.Sanitize(buf.String()))),
	}, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimPrefix(input, "\uFEFF")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}
