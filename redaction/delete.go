package redaction

import "github.com/tolelom/redactchain/core"

// Delete removes req.TargetTx from its block entirely, then forges a new r
// so the block's digest is unaffected by the shorter transaction list.
func (e *Engine) Delete(req *core.RedactionRequest, nodes []*core.Node, now float64) (*core.RedactedTxRecord, error) {
	return e.execute(req, nodes, now, func(block *core.Block) string {
		removed := block.Transactions[req.TargetTx]
		block.Transactions = append(block.Transactions[:req.TargetTx], block.Transactions[req.TargetTx+1:]...)
		return removed.ID
	})
}
