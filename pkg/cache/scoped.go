package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one backend.
//
// Example usage:
//
//	// Separate namespaces for two server instances on one Redis
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(tableHash, configHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(tableHash, configHash, opts)
}

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(tableHash, header, format string) string {
	return k.prefix + k.inner.PreviewKey(tableHash, header, format)
}
