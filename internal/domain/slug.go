package domain

import "strings"

// DBNamePrefix namespaces every tenant database name so they can never
// collide with system schemas.
const DBNamePrefix = "tenant_"

// Slugify lower-cases the input and collapses every run of
// non-alphanumeric characters into a single underscore. Only ASCII
// letters and digits survive; leading and trailing separators are
// trimmed. The result is deterministic: the same input always yields
// the same slug.
func Slugify(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	return b.String()
}

// DBNameFromTenantName derives the immutable isolated-database name
// for a tenant, e.g. "Acme Corp" becomes "tenant_acme_corp". A name
// that slugifies to nothing cannot be provisioned.
func DBNameFromTenantName(name string) (string, error) {
	slug := Slugify(name)
	if slug == "" {
		return "", ErrEmptyDBName
	}
	return DBNamePrefix + slug, nil
}
