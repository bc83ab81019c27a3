package extractor

import "sync"

// Handle is a thread-safe, initialize-once holder for the extraction
// client. The embedding server connection is a single shared resource;
// the handle guarantees concurrent first use constructs the client
// exactly once and is injected where extraction is needed instead of
// living in package-level state.
type Handle struct {
	baseURL string
	once    sync.Once
	client  *Client
}

// NewHandle creates a handle that will lazily construct a client for
// the given base URL on first use.
func NewHandle(baseURL string) *Handle {
	return &Handle{baseURL: baseURL}
}

// Client returns the shared extraction client, constructing it on
// first call.
func (h *Handle) Client() *Client {
	h.once.Do(func() {
		h.client = NewClient(h.baseURL)
	})
	return h.client
}
