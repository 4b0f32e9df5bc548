package gateway

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"momo-proxy-backend/internal/logger"
)

const (
	StrategyRoundRobin = "round_robin"
	StrategyPrimary    = "primary"
	StrategyRandom     = "random"
)

// SIM is one mobile-money SIM card seated in a gateway GSM port.
type SIM struct {
	Name string
	Port int
}

// SIMPool picks the SIM for the next USSD session. SIMs that failed at the
// transport level are skipped until they recover or every SIM has failed.
type SIMPool struct {
	mu        sync.Mutex
	sims      []SIM
	strategy  string
	primary   string
	secondary string
	failed    map[string]bool
	next      int
	intn      func(n int) int
}

func NewSIMPool(sims []SIM, strategy, primary, secondary string) (*SIMPool, error) {
	if len(sims) == 0 {
		return nil, fmt.Errorf("sim pool needs at least one SIM")
	}
	switch strategy {
	case "":
		strategy = StrategyRoundRobin
	case StrategyRoundRobin, StrategyPrimary, StrategyRandom:
	default:
		return nil, fmt.Errorf("unknown SIM strategy: %s", strategy)
	}
	if primary == "" {
		primary = sims[0].Name
	}
	return &SIMPool{
		sims:      sims,
		strategy:  strategy,
		primary:   primary,
		secondary: secondary,
		failed:    make(map[string]bool),
		intn:      rand.IntN,
	}, nil
}

func (p *SIMPool) Pick() SIM {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := p.availableLocked()
	if len(available) == 0 {
		logger.Warn("All SIMs marked failed, resetting pool")
		p.failed = make(map[string]bool)
		available = p.sims
	}

	switch p.strategy {
	case StrategyPrimary:
		for _, name := range []string{p.primary, p.secondary} {
			for _, sim := range available {
				if sim.Name == name {
					return sim
				}
			}
		}
		return available[p.intn(len(available))]
	case StrategyRandom:
		return available[p.intn(len(available))]
	default:
		sim := available[p.next%len(available)]
		p.next++
		return sim
	}
}

func (p *SIMPool) MarkFailed(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.failed[name] {
		logger.Warn("SIM marked failed", "sim", name)
	}
	p.failed[name] = true
}

func (p *SIMPool) MarkRecovered(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed[name] {
		logger.Info("SIM recovered", "sim", name)
		delete(p.failed, name)
	}
}

func (p *SIMPool) availableLocked() []SIM {
	out := make([]SIM, 0, len(p.sims))
	for _, sim := range p.sims {
		if !p.failed[sim.Name] {
			out = append(out, sim)
		}
	}
	return out
}
