package extract

// KeyPool is an ordered list of credentials for the extraction API.
// It is stateless: callers select a key by attempt index and the pool
// round-robins so repeated failures exercise every credential.
type KeyPool []string

// Size returns the number of credentials, which is also the maximum
// number of extraction attempts per page.
func (p KeyPool) Size() int { return len(p) }

// KeyFor returns the credential for the given zero-based attempt.
func (p KeyPool) KeyFor(attempt int) string {
	return p[attempt%len(p)]
}
