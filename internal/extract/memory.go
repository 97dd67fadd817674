package extract

import "fmt"

// contextWindow is how many immediately preceding pages contribute
// continuity context when building a prompt.
const contextWindow = 3

// PageMemory maps page numbers to short context summaries used to give the
// model continuity across a multi-page document. It is caller-owned, created
// fresh per extraction session, and mutated in place by each invocation.
// Entries are never removed; only the window of recent prior pages is read.
//
// Access is sequential by design: one page's full retry loop completes before
// the next page begins, so no locking is needed.
type PageMemory struct {
	entries map[int]string
}

// NewPageMemory returns an empty session memory.
func NewPageMemory() *PageMemory {
	return &PageMemory{entries: make(map[int]string)}
}

// Record stores the synthetic context placeholder for a page. It is an
// idempotent overwrite and happens on every attempt, before the external
// call is made.
func (m *PageMemory) Record(page int) {
	m.entries[page] = fmt.Sprintf("questions extracted from page %d of the paper", page)
}

// Set overwrites the context for a page.
func (m *PageMemory) Set(page int, context string) {
	m.entries[page] = context
}

// Get returns the stored context for a page.
func (m *PageMemory) Get(page int) (string, bool) {
	c, ok := m.entries[page]
	return c, ok
}

// Len returns the number of stored entries.
func (m *PageMemory) Len() int { return len(m.entries) }

// Window returns "Page <n>: <context>" lines for pages in the half-open
// range [current-contextWindow, current), in page order. Pages outside the
// window remain stored but are not consulted.
func (m *PageMemory) Window(current int) []string {
	var lines []string
	for n := current - contextWindow; n < current; n++ {
		if c, ok := m.entries[n]; ok {
			lines = append(lines, fmt.Sprintf("Page %d: %s", n, c))
		}
	}
	return lines
}
