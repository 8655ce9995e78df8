package core

import (
	"fmt"
	"math/big"

	"github.com/tolelom/redactchain/crypto/chameleon"
)

// BlockType distinguishes the genesis block from ordinary mined blocks and
// from audit blocks emitted by the on-chain voting variant of redaction.
type BlockType string

const (
	BlockGenesis BlockType = "GENESIS"
	BlockNormal  BlockType = "NORMAL"
	BlockAudit   BlockType = "AUDIT"
)

// RedactionRecord is one entry in a block's append-only redaction_history:
// a receipt of a single DELETE/MODIFY/ANONYMIZE operation that was applied
// to this block without disturbing its chameleon digest.
type RedactionRecord struct {
	Type      RedactionType `json:"type"`
	TargetTx  int           `json:"target_tx"`
	Requester int           `json:"requester"`
	Approvers []int         `json:"approvers"`
	Timestamp float64       `json:"timestamp"`
}

// Block is a node's local view of one position in its chain. ID and R are
// deliberately mutable: a redaction rewrites R, the chameleon forging
// randomness, in place rather than replacing the block — that's the whole
// point of a chameleon-hash chain.
type Block struct {
	Depth        int            `json:"depth"`
	ID           string         `json:"id"`
	Previous     string         `json:"previous"`
	Timestamp    float64        `json:"timestamp"`
	Miner        int            `json:"miner"`
	Size         float64        `json:"size"`
	Transactions []*Transaction `json:"transactions"`

	R            *big.Int `json:"-"`
	OriginalHash string   `json:"original_hash"`

	BlockType        BlockType         `json:"block_type"`
	RedactionHistory []RedactionRecord `json:"redaction_history"`
	ContractCalls    []*ContractCall   `json:"contract_calls,omitempty"`
	SmartContracts   []string          `json:"smart_contracts,omitempty"`
}

// NewGenesisBlock builds depth-0's block. Genesis has no miner and no
// chameleon digest: its id is a fixed label, matching the original
// simulator's convention of seeding every node's chain with an identical
// sentinel block.
func NewGenesisBlock() *Block {
	return &Block{
		Depth:     0,
		ID:        "genesis",
		Previous:  "",
		Timestamp: 0,
		Miner:     -1,
		BlockType: BlockGenesis,
	}
}

// NewBlock constructs an empty block owned by miner at the given depth,
// chained onto previous. Transactions and the chameleon digest are filled
// in afterwards by the create_block event handler.
func NewBlock(depth, miner int, previous string, timestamp float64) *Block {
	return &Block{
		Depth:     depth,
		Previous:  previous,
		Timestamp: timestamp,
		Miner:     miner,
		BlockType: BlockNormal,
	}
}

// Digest computes SHA256(canonical(transactions, previous)) — the message m
// that gets chameleon-hashed into b.ID. Any mutation to Transactions or
// Previous must be followed by a fresh forge, or Invariant A breaks.
func (b *Block) Digest() string {
	return ComputeTxRoot(b.Transactions, b.Previous)
}

// Seal computes b.ID = ChameleonHash(pk, Digest(), r) and snapshots
// OriginalHash, once a miner finishes assembling a block. grp/pk are the
// miner's chameleon group and public key; r becomes the block's owned
// forging randomness.
func (b *Block) Seal(grp *chameleon.Group, pk, r *big.Int) error {
	id, err := chameleon.HashHex(grp, pk, b.Digest(), r)
	if err != nil {
		return fmt.Errorf("core: seal block at depth %d: %w", b.Depth, err)
	}
	b.ID = id
	b.OriginalHash = id
	b.R = r
	return nil
}

// VerifyIntegrity checks Invariant A: the block's id must equal the
// chameleon hash of its current transaction digest and randomness under the
// miner's public key. A block that fails this after a redaction indicates a
// broken forge.
func (b *Block) VerifyIntegrity(grp *chameleon.Group, pk *big.Int) error {
	if b.BlockType == BlockGenesis {
		return nil
	}
	if b.R == nil {
		return fmt.Errorf("core: block at depth %d has no chameleon randomness", b.Depth)
	}
	computed, err := chameleon.HashHex(grp, pk, b.Digest(), b.R)
	if err != nil {
		return fmt.Errorf("core: verify block at depth %d: %w", b.Depth, err)
	}
	if computed != b.ID {
		return fmt.Errorf("core: block at depth %d: id %s does not match recomputed digest %s", b.Depth, b.ID, computed)
	}
	return nil
}

// AppendRedaction records rec on this block's history. It does not itself
// touch ID or R — callers that mutate Transactions forge a new R and
// recompute ID themselves.
func (b *Block) AppendRedaction(rec RedactionRecord) {
	b.RedactionHistory = append(b.RedactionHistory, rec)
}

// Clone returns a copy of b with its own transactions (each cloned), its
// own RedactionHistory and ContractCalls slices and its own R; the
// *ContractCall values and any other reference fields are shared with b.
func (b *Block) Clone() *Block {
	cp := *b
	cp.Transactions = make([]*Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		cp.Transactions[i] = tx.Clone()
	}
	if len(b.RedactionHistory) > 0 {
		cp.RedactionHistory = append([]RedactionRecord(nil), b.RedactionHistory...)
	}
	if len(b.ContractCalls) > 0 {
		cp.ContractCalls = append([]*ContractCall(nil), b.ContractCalls...)
	}
	if b.R != nil {
		cp.R = new(big.Int).Set(b.R)
	}
	return &cp
}
