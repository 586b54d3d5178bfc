package harvest

import (
	"slices"
	"sync"

	"github.com/proxyharvest/proxyharvest/internal/model"
)

// Collection is a deduplicating token set shared across workers.
// Every mutation is a set union, so the final contents are independent of
// worker interleaving: the same inputs always produce the same set.
//
// A Collection is safe for concurrent use.
type Collection struct {
	mu     sync.Mutex
	tokens map[model.ProxyToken]struct{}
}

// NewCollection creates an empty Collection.
func NewCollection() *Collection {
	return &Collection{
		tokens: make(map[model.ProxyToken]struct{}),
	}
}

// Add inserts the given tokens, ignoring duplicates.
func (c *Collection) Add(tokens ...model.ProxyToken) {
	if len(tokens) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, token := range tokens {
		c.tokens[token] = struct{}{}
	}
}

// Merge inserts every token held by other.
func (c *Collection) Merge(other *Collection) {
	c.Add(other.Tokens()...)
}

// Len returns the number of unique tokens collected so far.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}

// Tokens returns a snapshot of the collected tokens in no particular order.
func (c *Collection) Tokens() []model.ProxyToken {
	c.mu.Lock()
	defer c.mu.Unlock()

	tokens := make([]model.ProxyToken, 0, len(c.tokens))
	for token := range c.tokens {
		tokens = append(tokens, token)
	}
	return tokens
}

// Sorted returns the collected tokens sorted lexically on their string form.
func (c *Collection) Sorted() []model.ProxyToken {
	tokens := c.Tokens()
	slices.Sort(tokens)
	return tokens
}
