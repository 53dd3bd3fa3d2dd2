package assets

// AssetLoader is the contract shared by every asset source: page styles
// (CSS) and page templates (HTML) addressed by bare name, extension
// implied. Embedded, filesystem, and resolving loaders all satisfy it.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist and
	// ErrInvalidAssetName if the name could address a path.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML page template by name (without .html
	// extension). Returns ErrTemplateNotFound if the template doesn't
	// exist and ErrInvalidAssetName if the name could address a path.
	LoadTemplate(name string) (string, error)
}
