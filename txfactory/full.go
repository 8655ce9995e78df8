package txfactory

import (
	"math/rand"

	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/network"
)

// FullFactory generates Tn*simTime transactions upfront and propagates
// deep copies to every node's own pool, each stamped with a per-link
// receive-time delay.
type FullFactory struct {
	idSeq  int
	rng    *rand.Rand
	params Params
	delay  *network.DelayModel
}

// NewFullFactory builds a FullFactory sourced from rng, using delay to draw
// per-link transaction propagation times.
func NewFullFactory(params Params, rng *rand.Rand, delay *network.DelayModel) *FullFactory {
	return &FullFactory{rng: rng, params: params, delay: delay}
}

// CreateTransactions generates Tn*simTime transactions, enqueues each into
// its sender's pool immediately, then deep-copies it into every other
// node's pool with ReceivedAt = timestamp + tx_prop_delay().
func (f *FullFactory) CreateTransactions(nodes []*core.Node, tn, simTime float64) {
	count := int(tn * simTime)
	nodeIDs := make([]int, len(nodes))
	byID := make(map[int]*core.Node, len(nodes))
	for i, n := range nodes {
		nodeIDs[i] = n.ID
		byID[n.ID] = n
	}

	for i := 0; i < count; i++ {
		creationTime := f.rng.Float64() * simTime
		tx := newTransaction(f.rng, f.params, nodeIDs, &f.idSeq, creationTime)
		tx.ReceivedAt = creationTime

		sender := byID[tx.Sender]
		sender.TxPool.Add(tx)

		for _, n := range nodes {
			if n.ID == tx.Sender {
				continue
			}
			clone := tx.Clone()
			clone.ReceivedAt = creationTime + f.delay.TxPropDelay()
			n.TxPool.Add(clone)
		}
	}
}

// ExecuteTransactions selects the highest-fee transactions available to
// miner at time now, constrained by blockSize, exactly as TxPool.Select
// describes.
func (f *FullFactory) ExecuteTransactions(miner *core.Node, now, blockSize float64) (selected []*core.Transaction, totalSize float64) {
	selected = miner.TxPool.Select(now, blockSize)
	for _, tx := range selected {
		totalSize += tx.Size
	}
	return selected, totalSize
}
