package assets

import (
	"embed"
	"fmt"
)

//go:embed styles templates
var builtin embed.FS

// EmbeddedLoader serves the assets compiled into the binary: the
// built-in page style and the document page template. It is the loader
// of last resort; a custom asset directory, when configured, shadows it.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle returns a built-in CSS style by bare name (no extension).
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return e.read("styles/"+name+".css", ErrStyleNotFound, name)
}

// LoadTemplate returns a built-in HTML page template by bare name.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return e.read("templates/"+name+".html", ErrTemplateNotFound, name)
}

func (e *EmbeddedLoader) read(path string, notFound error, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := builtin.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q", notFound, name)
	}
	return string(content), nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
