package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAlias is the sentinel wrapped by MissingAliasError.
	ErrMissingAlias = errors.New("catalog alias not found")
)

// MissingAliasError reports an alias (or a bundle member) that is not
// registered in the catalog. It surfaces at the first resolution that
// needs the alias, never earlier, so catalogs may be assembled
// incrementally.
type MissingAliasError struct {
	Alias  string
	Bundle string
}

func (e *MissingAliasError) Error() string {
	if e.Bundle != "" {
		return fmt.Sprintf("%s: %q (member of bundle %q)", ErrMissingAlias.Error(), e.Alias, e.Bundle)
	}
	return fmt.Sprintf("%s: %q", ErrMissingAlias.Error(), e.Alias)
}

func (e *MissingAliasError) Unwrap() error { return ErrMissingAlias }
