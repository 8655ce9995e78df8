// Package network models propagation latency between simulated nodes. It
// carries no sockets or wire format — every "send" is a delay draw applied
// to an event's scheduled time.
package network

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// DelayModel draws non-negative propagation delays for blocks and
// transactions from independent exponential distributions.
type DelayModel struct {
	blockDelay distuv.Exponential
	txDelay    distuv.Exponential
}

// NewDelayModel builds a DelayModel whose block and transaction delays have
// the given means (Bdelay, Tdelay in the run configuration), sourced from
// rng so an entire run is reproducible from one seed.
func NewDelayModel(blockDelayMean, txDelayMean float64, rng *rand.Rand) *DelayModel {
	return &DelayModel{
		blockDelay: distuv.Exponential{Rate: 1 / blockDelayMean, Src: rng},
		txDelay:    distuv.Exponential{Rate: 1 / txDelayMean, Src: rng},
	}
}

// BlockPropDelay draws one block-propagation delay.
func (d *DelayModel) BlockPropDelay() float64 {
	return d.blockDelay.Rand()
}

// TxPropDelay draws one transaction-propagation delay.
func (d *DelayModel) TxPropDelay() float64 {
	return d.txDelay.Rand()
}
