package redaction

import "github.com/tolelom/redactchain/core"

// Modify mutates req.TargetTx in place — zeroing its value and flagging it
// as redacted in metadata — then runs the forge step. The block digest covers
// only transaction ids and the previous id, so digest, r and block id all
// come out unchanged.
func (e *Engine) Modify(req *core.RedactionRequest, nodes []*core.Node, now float64) (*core.RedactedTxRecord, error) {
	return e.execute(req, nodes, now, func(block *core.Block) string {
		tx := block.Transactions[req.TargetTx]
		tx.Value = 0
		if tx.Metadata == nil {
			tx.Metadata = make(map[string]any)
		}
		tx.Metadata["redacted"] = true
		return tx.ID
	})
}
