package render

import (
	"bytes"
	"embed"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.html
var theme embed.FS

// dirLoader reads templates from a user directory. Relative includes are
// resolved against the directory, not the including template.
type dirLoader struct {
	dir string
}

func (l dirLoader) Abs(_, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.dir, name)
}

func (l dirLoader) Get(p string) (io.Reader, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// themeLoader serves the embedded default theme. Names are matched by base
// name so that includes resolved by dirLoader fall through to it.
type themeLoader struct{}

func (themeLoader) Abs(_, name string) string {
	return path.Base(filepath.ToSlash(name))
}

func (themeLoader) Get(p string) (io.Reader, error) {
	data, err := theme.ReadFile("templates/" + p)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

var (
	_ pongo2.TemplateLoader = dirLoader{}
	_ pongo2.TemplateLoader = themeLoader{}
)
