package redaction

import (
	"fmt"
	"math/big"
	"time"

	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/crypto/chameleon"
)

// execute locates the requester's target block and transaction, appends the
// redaction record, applies mutate to the transaction list, and forges a
// new r so the block's id is unchanged. It returns the elapsed wall-clock
// time in milliseconds, matching the source simulator's own instrumentation
// (a real deployment would use simulated time; here elapsed is purely an
// operator-facing metric, never fed back into the event clock).
func (e *Engine) execute(req *core.RedactionRequest, nodes []*core.Node, now float64, mutate func(block *core.Block) (removedTxID string)) (*core.RedactedTxRecord, error) {
	start := time.Now()

	var requester *core.Node
	for _, n := range nodes {
		if n.ID == req.Requester {
			requester = n
			break
		}
	}
	if requester == nil || req.TargetBlock >= len(requester.Blockchain) {
		return nil, fmt.Errorf("redaction: target block %d out of range for node %d", req.TargetBlock, req.Requester)
	}
	block := requester.Blockchain[req.TargetBlock]
	if req.TargetTx >= len(block.Transactions) {
		return nil, fmt.Errorf("redaction: target tx %d out of range for block %d", req.TargetTx, req.TargetBlock)
	}
	// Only the trapdoor of the miner that sealed the block yields an r that
	// keeps block.ID unchanged.
	owner := requester
	for _, n := range nodes {
		if n.ID == block.Miner {
			owner = n
			break
		}
	}

	block.AppendRedaction(core.RedactionRecord{
		Type:      req.RedactionType,
		TargetTx:  req.TargetTx,
		Requester: req.Requester,
		Approvers: req.Voters,
		Timestamp: now,
	})

	m1 := block.Digest()
	removedTxID := mutate(block)
	m2 := block.Digest()

	if e.multi {
		minerList := minersOf(nodes)
		if _, err := e.sharing.Share(owner.ChameleonSK, owner.ChameleonGroup.Q, len(minerList), len(nodes)); err != nil {
			return nil, fmt.Errorf("redaction: secret share: %w", err)
		}
	}
	r2, err := chameleonForge(owner, m1, m2, block.R)
	if err != nil {
		return nil, err
	}
	id2, err := chameleonHashHex(owner, m2, r2)
	if err != nil {
		return nil, err
	}
	block.R = r2
	block.ID = id2

	if e.multi {
		broadcastRedaction(nodes, requester.ID, req.TargetBlock, block)
	}

	elapsedMS := float64(time.Since(start).Microseconds()) / 1000.0
	reward := e.rng.ExpFloat64() * e.rreward
	requester.Balance += uint64(reward)

	rec := core.RedactedTxRecord{
		BlockDepth: req.TargetBlock,
		TxID:       removedTxID,
		Reward:     reward,
		ElapsedMS:  elapsedMS,
		ChainLen:   len(requester.Blockchain),
		TxCount:    len(block.Transactions),
		Type:       req.RedactionType,
	}
	requester.RedactedTx = append(requester.RedactedTx, rec)
	return &rec, nil
}

func minersOf(nodes []*core.Node) []*core.Node {
	var miners []*core.Node
	for _, n := range nodes {
		if n.IsMiner() {
			miners = append(miners, n)
		}
	}
	return miners
}

func chameleonForge(requester *core.Node, digest1Hex, digest2Hex string, r1 *big.Int) (*big.Int, error) {
	grp := requester.ChameleonGroup
	m1, err := grp.DigestToInt(digest1Hex)
	if err != nil {
		return nil, err
	}
	m2, err := grp.DigestToInt(digest2Hex)
	if err != nil {
		return nil, err
	}
	return chameleon.Forge(grp, requester.ChameleonSK, m1, r1, m2)
}

func chameleonHashHex(requester *core.Node, digestHex string, r *big.Int) (string, error) {
	return chameleon.HashHex(requester.ChameleonGroup, requester.ChameleonPK, digestHex, r)
}

// broadcastRedaction pushes the requester's post-redaction transaction list,
// randomness and id to every other node's same-indexed block. A peer whose
// slot holds the very *Block the requester redacted (received blocks are
// shared by pointer) already sees the change; every peer slot gets its own
// deep-copied transaction list.
func broadcastRedaction(nodes []*core.Node, requesterID, depth int, updated *core.Block) {
	for _, n := range nodes {
		if n.ID == requesterID || depth >= len(n.Blockchain) {
			continue
		}
		peerBlock := n.Blockchain[depth]
		peerBlock.Transactions = make([]*core.Transaction, len(updated.Transactions))
		for i, tx := range updated.Transactions {
			peerBlock.Transactions[i] = tx.Clone()
		}
		peerBlock.R = new(big.Int).Set(updated.R)
		peerBlock.ID = updated.ID
	}
}
