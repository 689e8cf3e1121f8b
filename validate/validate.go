// Package validate checks ServerTarget input at the api package's
// boundary, before it reaches the engine or the store.
package validate

import (
	"fmt"
	"net/url"

	"github.com/kat-co/vala"
)

// URL validates that raw is a non-empty, absolute http(s) URL with a host,
// per spec.md's requirement that add_server reject malformed targets before
// they reach the engine.
func URL(raw string) error {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(raw, "url"),
	).Check(); err != nil {
		return err
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing url %q: %w", raw, err)
	}

	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(parsed.Scheme, "url.scheme"),
		vala.StringNotEmpty(parsed.Host, "url.host"),
	).Check(); err != nil {
		return err
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url %q: scheme must be http or https, got %q", raw, parsed.Scheme)
	}
	return nil
}
