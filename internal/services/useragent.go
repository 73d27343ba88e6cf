// Package services implements the archiving backends the batch submits to.
package services

import (
	"crypto/rand"
	"math/big"
)

// defaultUserAgents rotates between common browser identities; archive
// endpoints throttle obvious bot agents much more aggressively.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
}

// AgentPool hands out a random user agent per request.
type AgentPool struct {
	agents []string
}

// NewAgentPool builds a pool, falling back to the default browser set
// when agents is empty.
func NewAgentPool(agents []string) *AgentPool {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &AgentPool{agents: agents}
}

// Pick returns one agent from the pool.
func (p *AgentPool) Pick() string {
	if len(p.agents) == 1 {
		return p.agents[0]
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.agents))))
	if err != nil {
		return p.agents[0]
	}
	return p.agents[n.Int64()]
}
