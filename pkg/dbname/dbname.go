package dbname

import (
	"strings"
	"unicode"
)

// Prefix is prepended to every derived tenant database name. It keeps tenant
// databases visually grouped on the server and guarantees a derived name can
// never collide with the control-plane database or any built-in catalog.
const Prefix = "tenant_"

// maxLength is the PostgreSQL identifier limit.
const maxLength = 63

// reserved lists database names that may never be addressed as tenants, with
// and without the prefix.
var reserved = map[string]struct{}{
	"postgres":  {},
	"template0": {},
	"template1": {},
	"tmskit":    {},
	"admin":     {},
	"public":    {},
}

// Derive produces the physical database name for a tenant from its
// user-supplied organization label: Prefix plus the label sanitized to a safe
// identifier charset. Derivation is deterministic: the same label always
// yields the same name, so retries of a failed provisioning attempt target
// the same database.
func Derive(label string) (string, error) {
	s := Sanitize(label)
	if s == "" {
		return "", ErrEmptyName
	}
	if _, ok := reserved[s]; ok {
		return "", ErrReservedName
	}

	name := Prefix + s
	if len(name) > maxLength {
		name = strings.TrimRight(name[:maxLength], "_")
	}
	return name, nil
}

// Sanitize lowercases the label and collapses every run of characters outside
// [a-z0-9] into a single underscore. Leading and trailing underscores are
// stripped, as are leading digits, which are not valid at the start of an
// identifier.
func Sanitize(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	lastWasSep := true // suppress leading separators
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasSep = false
		case unicode.IsUpper(r) && r <= unicode.MaxASCII:
			b.WriteRune(unicode.ToLower(r))
			lastWasSep = false
		default:
			if !lastWasSep {
				b.WriteByte('_')
				lastWasSep = true
			}
		}
	}

	s := strings.Trim(b.String(), "_")
	return strings.TrimLeft(s, "0123456789_")
}

// Valid reports whether name is a derived tenant database name: it carries
// the prefix and its remainder survives sanitization unchanged.
func Valid(name string) bool {
	rest, ok := strings.CutPrefix(name, Prefix)
	if !ok || rest == "" {
		return false
	}
	if _, res := reserved[rest]; res {
		return false
	}
	return Sanitize(rest) == rest
}
