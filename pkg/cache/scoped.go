package cache

// ScopedKeyer prefixes every key of an inner Keyer. The server uses it to
// keep its entries apart from CLI entries sharing the same Redis instance.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "picgraph:server:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ReportKey implements Keyer.
func (k *ScopedKeyer) ReportKey(sceneHash string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(sceneHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(reportHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(reportHash, opts)
}
