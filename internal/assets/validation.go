package assets

import "fmt"

// maxAssetNameLength bounds style and template names.
const maxAssetNameLength = 64

// ValidateAssetName checks that name can be used as a bare file name under
// styles/ or templates/. Only ASCII letters, digits, '-' and '_' are
// accepted, so separators, dots and control characters never reach a path.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxAssetNameLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidAssetName, maxAssetNameLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}
