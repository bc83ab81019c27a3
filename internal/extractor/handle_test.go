package extractor

import (
	"sync"
	"testing"
)

func TestHandleConstructsOnce(t *testing.T) {
	h := NewHandle("http://extractor:8000")

	const goroutines = 32
	clients := make([]*Client, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i] = h.Client()
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if clients[i] != clients[0] {
			t.Fatalf("Client() returned distinct instances under concurrent first use")
		}
	}
	if clients[0] == nil {
		t.Fatal("Client() returned nil")
	}
}

func TestHandleDefaultURL(t *testing.T) {
	h := NewHandle("")
	c := h.Client()
	if c.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %q, want default %q", c.baseURL, defaultBaseURL)
	}
}
