package ports

// NameResolverPort maps raw organization names, as they appear in source
// standings data, onto canonical unit keys. The statistical core only ever
// sees canonical keys; resolution happens at the ingestion boundary.
type NameResolverPort interface {
	// Resolve returns the canonical unit key for a raw name, and whether
	// the name was covered by the mapping. Uncovered names still get a
	// deterministic fallback key so ingestion can proceed while the
	// caller collects the misses for review.
	Resolve(raw string) (canonical string, known bool)

	// Version identifies the mapping revision in use so study results
	// can pin the exact canonicalization they were computed under.
	Version() string
}
