package core

import (
	"sort"
	"sync"
)

// TxPool is a node's pending-transaction pool. In Full mode every node owns
// one, populated by deep-copied sends from CreateTransactions. In
// Light-propagation mode nodes have none: txfactory.LightFactory keeps the
// shared pending list and fills a fresh TxPool from it for each selection.
type TxPool struct {
	mu  sync.Mutex
	txs map[string]*Transaction
}

// NewTxPool creates an empty pool.
func NewTxPool() *TxPool {
	return &TxPool{txs: make(map[string]*Transaction)}
}

// Add inserts tx, overwriting any existing entry with the same ID.
func (p *TxPool) Add(tx *Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs[tx.ID] = tx
}

// Remove deletes the given transaction IDs, called after they are selected
// into a mined block.
func (p *TxPool) Remove(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		delete(p.txs, id)
	}
}

// Size returns the number of pending transactions.
func (p *TxPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}

// Select implements execute_transactions: it returns the highest-fee
// transactions available to the miner at time now, constrained by a
// cumulative byte-size budget. A transaction is available only once its
// ReceivedAt (Full mode) is at or before now; ReceivedAt is zero in Light
// mode, where every transaction is visible to every node immediately.
func (p *TxPool) Select(now, maxSize float64) []*Transaction {
	p.mu.Lock()
	candidates := make([]*Transaction, 0, len(p.txs))
	for _, tx := range p.txs {
		if tx.ReceivedAt > now {
			continue
		}
		candidates = append(candidates, tx)
	}
	p.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Fee != candidates[j].Fee {
			return candidates[i].Fee > candidates[j].Fee
		}
		return candidates[i].ID < candidates[j].ID // deterministic tiebreak
	})

	selected := make([]*Transaction, 0, len(candidates))
	var cumSize float64
	for _, tx := range candidates {
		if cumSize+tx.Size > maxSize {
			continue
		}
		cumSize += tx.Size
		selected = append(selected, tx)
	}
	return selected
}
