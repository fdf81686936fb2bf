package page

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"

	"github.com/jgivc/vsxsync/internal/common"
	"github.com/jgivc/vsxsync/internal/util"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

// Frontmatter of the status page markdown file.
type Frontmatter struct {
	Title   string `yaml:"title"`
	Enabled *bool  `yaml:"enabled"`
}

// Content is a rendered status page. Hash doubles as the ETag.
type Content struct {
	Title string
	HTML  string
	Hash  string
}

type pageContext struct {
	Title       string
	ContentHTML template.HTML
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
</head>
<body>
    <h1>{{.Title}}</h1>
    {{.ContentHTML}}
</body>
</html>
`

// Adapter renders the server status page from a markdown file with
// optional YAML frontmatter (title, enabled). A missing file or
// enabled: false both surface as common.ErrPageNotFoundError.
type Adapter struct {
	fs   afero.Fs
	path string
	md   goldmark.Markdown
	tmpl *template.Template
	log  *slog.Logger
}

func NewAdapter(path string, log *slog.Logger) (*Adapter, error) {
	return NewAdapterWithFS(afero.NewOsFs(), path, log)
}

func NewAdapterWithFS(fs afero.Fs, path string, log *slog.Logger) (*Adapter, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("cannot parse page template: %w", err)
	}

	return &Adapter{
		fs:   fs,
		path: path,
		md:   md,
		tmpl: tmpl,
		log:  log.With(slog.String("item", "PageAdapter")),
	}, nil
}

func (a *Adapter) Render() (*Content, error) {
	src, err := afero.ReadFile(a.fs, a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrPageNotFoundError
		}

		return nil, fmt.Errorf("cannot read page file %s: %w", a.path, err)
	}

	var buf bytes.Buffer

	pc := parser.NewContext()
	if err := a.md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("cannot convert page markdown: %w", err)
	}

	var fm Frontmatter
	if d := frontmatter.Get(pc); d != nil {
		if err := d.Decode(&fm); err != nil {
			return nil, fmt.Errorf("cannot decode page frontmatter: %w", err)
		}
	}

	if fm.Enabled != nil && !*fm.Enabled {
		return nil, common.ErrPageNotFoundError
	}

	title := fm.Title
	if title == "" {
		title = "vsxsync"
	}

	var page bytes.Buffer
	if err := a.tmpl.Execute(&page, &pageContext{
		Title:       title,
		ContentHTML: template.HTML(buf.String()),
	}); err != nil {
		return nil, fmt.Errorf("cannot build page: %w", err)
	}

	content := page.Bytes()

	return &Content{
		Title: title,
		HTML:  string(content),
		Hash:  util.ContentID(content),
	}, nil
}
