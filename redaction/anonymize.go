package redaction

import "github.com/tolelom/redactchain/core"

// Anonymize strips req.TargetTx's sender and recipient identity, then runs
// the forge step. The block digest covers only transaction ids and the
// previous id, so digest, r and block id all come out unchanged.
func (e *Engine) Anonymize(req *core.RedactionRequest, nodes []*core.Node, now float64) (*core.RedactedTxRecord, error) {
	return e.execute(req, nodes, now, func(block *core.Block) string {
		tx := block.Transactions[req.TargetTx]
		tx.Sender = 0
		tx.To = 0
		if tx.Metadata == nil {
			tx.Metadata = make(map[string]any)
		}
		tx.Metadata["anonymized"] = true
		return tx.ID
	})
}
