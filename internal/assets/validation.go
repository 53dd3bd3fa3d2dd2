package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName rejects names that could address anything outside
// the asset directories. Names are bare identifiers: no separators and
// no dots, so neither traversal nor an extension override is
// expressible.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
