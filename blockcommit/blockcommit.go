// Package blockcommit implements the two top-level simulator event
// handlers: create_block (a miner finishes assembling and seals a block)
// and receive_block (a peer reconciles its local chain against one).
package blockcommit

import (
	"github.com/tolelom/redactchain/consensus"
	"github.com/tolelom/redactchain/contract"
	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/eventqueue"
	"github.com/tolelom/redactchain/events"
	"github.com/tolelom/redactchain/network"
	"github.com/tolelom/redactchain/redaction"
	"github.com/tolelom/redactchain/scheduler"
	"github.com/tolelom/redactchain/stats"
)

// TxSource abstracts the Light/Full transaction-factory split: both
// txfactory.LightFactory and txfactory.FullFactory implement it.
type TxSource interface {
	ExecuteTransactions(miner *core.Node, now, blockSize float64) ([]*core.Transaction, float64)
}

// Handler wires together every collaborator CreateBlock/ReceiveBlock
// needs: consensus sampling, the transaction source, contract execution,
// the redaction engine and policy registry, propagation delay, and the
// statistics sink.
type Handler struct {
	Nodes    []*core.Node
	Protocol *consensus.Protocol
	Source   TxSource
	Exec     *contract.Executor
	Redact   *redaction.Engine
	Delay    *network.DelayModel
	Emitter  *events.Emitter
	Stats    *stats.Statistics
	Cfg      Config
}

// Config bundles the per-run toggles the handler needs directly.
type Config struct {
	Bsize     float64
	HasRedact bool
	HasMulti  bool
}

// CreateBlock implements the create_block event: it validates the block is
// not a stale mining attempt, fills it with transactions and contract
// calls, runs the redaction voting driver, seals the chameleon digest, and
// schedules propagation plus the miner's next attempt.
func (h *Handler) CreateBlock(q *eventqueue.Queue, miner *core.Node, block *core.Block, now float64) {
	if block.Previous != miner.LastBlock().ID {
		return // stale mining attempt: miner's chain moved since this event was scheduled
	}
	h.Stats.TotalBlocks++

	selected, size := h.Source.ExecuteTransactions(miner, now, h.Cfg.Bsize)
	block.Transactions = selected
	block.Size = size

	if h.Cfg.HasRedact {
		h.processRedactionRequests(block, now)
	}
	h.Exec.ProcessSmartContracts(block, miner)

	r, err := miner.ChameleonGroup.RandomR()
	if err != nil {
		return
	}
	if err := block.Seal(miner.ChameleonGroup, miner.ChameleonPK, r); err != nil {
		return
	}

	miner.Blockchain = append(miner.Blockchain, block)
	h.Emitter.Emit(events.Event{Type: events.EventBlockMined, Timestamp: now, NodeID: miner.ID, Data: map[string]any{
		"depth": block.Depth, "id": block.ID, "previous": block.Previous,
		"num_tx": len(block.Transactions), "size": block.Size,
	}})

	for _, peer := range h.Nodes {
		if peer.ID == miner.ID {
			continue
		}
		scheduler.ReceiveBlockEvent(q, peer, block, now, h.Delay.BlockPropDelay())
	}

	if miner.IsMiner() {
		next := now + h.Protocol.NextBlockTime(miner)
		scheduler.CreateBlockEvent(q, miner, next)
	}
}

// ReceiveBlock implements the receive_block event at recipient: append if
// it extends the recipient's own tip, switch to it if it represents a
// longer fork, or drop it as a shorter/equal competing branch.
func (h *Handler) ReceiveBlock(q *eventqueue.Queue, recipient *core.Node, block *core.Block, now float64) {
	switch {
	case block.Previous == recipient.LastBlock().ID:
		recipient.Blockchain = append(recipient.Blockchain, block)
		h.Emitter.Emit(events.Event{Type: events.EventBlockReceived, Timestamp: now, NodeID: recipient.ID})
		if recipient.IsMiner() {
			next := now + h.Protocol.NextBlockTime(recipient)
			scheduler.CreateBlockEvent(q, recipient, next)
		}
	case block.Depth+1 > len(recipient.Blockchain):
		// the remote chain is strictly longer: switch to its prefix up to block.Depth
		owner := minerOf(h.Nodes, block.Miner)
		if owner == nil || block.Depth >= len(owner.Blockchain) {
			return
		}
		recipient.Blockchain = append([]*core.Block(nil), owner.Blockchain[:block.Depth+1]...)
		h.Emitter.Emit(events.Event{Type: events.EventForkSwitch, Timestamp: now, NodeID: recipient.ID})
		if recipient.IsMiner() {
			next := now + h.Protocol.NextBlockTime(recipient)
			scheduler.CreateBlockEvent(q, recipient, next)
		}
	default:
		// shorter or equal competing branch: ignore
	}
}

func minerOf(nodes []*core.Node, id int) *core.Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// processRedactionRequests admits any REDACTION_REQUEST transactions in
// block, then drives one round of voting for every PENDING request across
// the network.
func (h *Handler) processRedactionRequests(block *core.Block, now float64) {
	for _, tx := range block.Transactions {
		if tx.Type != core.TxRedactionRequest || tx.RedactionMeta == nil {
			continue
		}
		requester := minerOf(h.Nodes, tx.Sender)
		if requester == nil {
			continue
		}
		req, err := h.Redact.RequestRedaction(requester, tx.RedactionMeta.TargetBlock, tx.RedactionMeta.TargetTx,
			tx.RedactionMeta.RedactionType, tx.RedactionMeta.Reason, nil, now)
		if err != nil {
			continue
		}
		h.Emitter.Emit(events.Event{Type: events.EventRedactionRequest, Timestamp: now, NodeID: requester.ID,
			Data: map[string]any{"request_id": req.RequestID, "type": string(req.RedactionType)}})
	}

	for _, n := range h.Nodes {
		for _, req := range n.RedactionRequests {
			if req.Status != core.StatusPending {
				continue
			}
			rec, err := h.Redact.DriveVoting(req, h.Nodes, now)
			if err != nil {
				continue
			}
			switch req.Status {
			case core.StatusApproved:
				h.Stats.RedactionApprovals++
				h.Emitter.Emit(events.Event{Type: events.EventRedactionApproved, Timestamp: now, NodeID: n.ID,
					Data: map[string]any{"request_id": req.RequestID}})
				if rec != nil {
					h.Stats.RecordRedaction(*rec, n.ID, n.Role)
					h.Emitter.Emit(events.Event{Type: events.EventRedactionExecuted, Timestamp: now, NodeID: n.ID,
						Data: map[string]any{"request_id": req.RequestID, "reward": rec.Reward}})
				}
			case core.StatusRejected:
				h.Stats.RedactionRejections++
				h.Emitter.Emit(events.Event{Type: events.EventRedactionRejected, Timestamp: now, NodeID: n.ID,
					Data: map[string]any{"request_id": req.RequestID}})
			}
		}
	}
}
