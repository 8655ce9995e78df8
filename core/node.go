package core

import (
	"math/big"

	"github.com/tolelom/redactchain/crypto"
	"github.com/tolelom/redactchain/crypto/chameleon"
)

// Role is a node's governance role, fixed for the lifetime of a run.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleRegulator Role = "REGULATOR"
	RoleMiner     Role = "MINER"
	RoleUser      Role = "USER"
	RoleObserver  Role = "OBSERVER"
)

// RedactedTxRecord is one line of a miner's redaction ledger, recorded each
// time it executes an approved DELETE/MODIFY/ANONYMIZE against one of its
// own blocks.
type RedactedTxRecord struct {
	BlockDepth int           `json:"block_depth"`
	TxID       string        `json:"tx_id"`
	Reward     float64       `json:"reward"`
	ElapsedMS  float64       `json:"elapsed_ms"`
	ChainLen   int           `json:"chain_len"`
	TxCount    int           `json:"tx_count"`
	Type       RedactionType `json:"type"`
}

// Node is one participant in the simulated network. HashPower of zero marks
// a non-miner. Blockchain is this node's own slice of the chain, but the
// blocks in it are shared: a received block is appended by pointer, so nodes
// on the same branch hold the same *Block values and an in-place redaction
// of one is visible to all of them.
type Node struct {
	ID        int
	HashPower float64
	Balance   uint64
	Role      Role

	Blockchain []*Block
	TxPool     *TxPool // nil in Light mode; shared pool lives on the simulator instead

	ChameleonGroup *chameleon.Group
	ChameleonSK    *big.Int
	ChameleonPK    *big.Int

	IdentityPriv crypto.PrivateKey // used only to sign audit trail entries
	IdentityPub  crypto.PublicKey

	Permissions map[string]bool

	DeployedContracts  []string
	RedactionRequests  map[string]*RedactionRequest // by request id, this node's own requests
	RedactionApprovals map[string]int               // by request id, approvals this node has logged
	VotedRedactions    map[string]bool              // request ids this node has already voted on
	RedactedTx         []RedactedTxRecord
}

// NewNode builds a node with a fresh chameleon key pair and identity key,
// seeded onto the shared genesis block.
func NewNode(id int, hashPower float64, role Role, grp *chameleon.Group, genesis *Block) (*Node, error) {
	kp, err := chameleon.NewKeyPair(grp)
	if err != nil {
		return nil, err
	}
	priv, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &Node{
		ID:                 id,
		HashPower:          hashPower,
		Role:               role,
		Blockchain:         []*Block{genesis},
		ChameleonGroup:     grp,
		ChameleonSK:        kp.SK,
		ChameleonPK:        kp.PK,
		IdentityPriv:       priv,
		IdentityPub:        pub,
		RedactionRequests:  make(map[string]*RedactionRequest),
		RedactionApprovals: make(map[string]int),
		VotedRedactions:    make(map[string]bool),
	}, nil
}

// IsMiner reports whether this node has nonzero hash power.
func (n *Node) IsMiner() bool { return n.HashPower > 0 }

// LastBlock returns the tip of this node's local chain.
func (n *Node) LastBlock() *Block {
	return n.Blockchain[len(n.Blockchain)-1]
}

// SignAuditTrail signs an arbitrary digest with the node's identity key,
// used to attach a verifiable audit signature to redaction records when the
// node holds AUDIT permission.
func (n *Node) SignAuditTrail(digest string) string {
	return crypto.Sign(n.IdentityPriv, []byte(digest))
}
