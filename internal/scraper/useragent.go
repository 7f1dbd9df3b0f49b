package scraper

import "sync"

// Rotating a small desktop/mobile pool reduces trivial blocking; it is not a
// security control.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

type agentPool struct {
	mu     sync.Mutex
	agents []string
	next   int
}

func newAgentPool(agents []string) *agentPool {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &agentPool{agents: agents}
}

// Next returns the next user-agent string in round-robin order.
func (p *agentPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ua := p.agents[p.next]
	p.next = (p.next + 1) % len(p.agents)
	return ua
}
