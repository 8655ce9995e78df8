// Package consensus implements Nakamoto-style longest-chain mining: each
// miner samples its own next-block time from an exponential distribution
// weighted by its share of total hash power, and the network periodically
// resolves forks by picking the single longest local chain.
package consensus

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tolelom/redactchain/core"
)

// Protocol samples the next inter-block interval for a miner, weighted by
// its share of the network's total hash power so that the aggregate
// block-arrival rate across all miners still averages Binterval.
type Protocol struct {
	binterval      float64
	totalHashPower float64
	src            *rand.Rand
}

// NewProtocol builds a Protocol for a network whose miners' hash power sums
// to totalHashPower, targeting a mean inter-block time of binterval.
func NewProtocol(binterval, totalHashPower float64, src *rand.Rand) *Protocol {
	return &Protocol{binterval: binterval, totalHashPower: totalHashPower, src: src}
}

// NextBlockTime draws node's next create_block delay: expovariate with rate
// 1/(binterval * totalHashPower/node.HashPower). A non-miner (zero hash
// power) never gets scheduled; callers must check IsMiner first.
func (p *Protocol) NextBlockTime(node *core.Node) float64 {
	mean := p.binterval * p.totalHashPower / node.HashPower
	dist := distuv.Exponential{Rate: 1 / mean, Src: p.src}
	return dist.Rand()
}

// ForkStats summarizes the outcome of one fork-resolution pass.
type ForkStats struct {
	CanonicalOwner int
	ChainLength    int
	TotalBlocks    int
	MainBlocks     int
	StaleBlocks    int
}

// ResolveFork selects the single longest local chain across all nodes,
// breaking ties by lowest owner id, and reports it as the network's
// canonical view. totalBlocks is the running count of every block any node
// has ever mined (including stale ones), supplied by the caller's
// Statistics accumulator.
func ResolveFork(nodes []*core.Node, totalBlocks int) ForkStats {
	best := nodes[0]
	for _, n := range nodes[1:] {
		if len(n.Blockchain) > len(best.Blockchain) ||
			(len(n.Blockchain) == len(best.Blockchain) && n.ID < best.ID) {
			best = n
		}
	}
	mainBlocks := len(best.Blockchain) - 1
	if mainBlocks < 0 {
		mainBlocks = 0
	}
	return ForkStats{
		CanonicalOwner: best.ID,
		ChainLength:    len(best.Blockchain),
		TotalBlocks:    totalBlocks,
		MainBlocks:     mainBlocks,
		StaleBlocks:    totalBlocks - mainBlocks,
	}
}
