package cache

// ScopedKeyer wraps a Keyer with a prefix so that several asset trees can
// share one Redis instance without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "traitstack:mymillios:")
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

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(contentHash string, w, h int) string {
	return k.prefix + k.inner.PreviewKey(contentHash, w, h)
}
