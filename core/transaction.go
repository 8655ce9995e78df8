package core

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/tolelom/redactchain/crypto"
)

// TxType identifies the kind of operation a transaction performs.
type TxType string

const (
	TxTransfer         TxType = "TRANSFER"
	TxContractCall     TxType = "CONTRACT_CALL"
	TxContractDeploy   TxType = "CONTRACT_DEPLOY"
	TxRedactionRequest TxType = "REDACTION_REQUEST"
	TxMedicalRecord    TxType = "MEDICAL_RECORD"
)

// PrivacyLevel labels how sensitive a transaction's payload is.
type PrivacyLevel string

const (
	PrivacyPublic       PrivacyLevel = "PUBLIC"
	PrivacyPrivate      PrivacyLevel = "PRIVATE"
	PrivacyConfidential PrivacyLevel = "CONFIDENTIAL"
)

// RedactionType identifies one of the three redaction primitives.
type RedactionType string

const (
	RedactDelete    RedactionType = "DELETE"
	RedactModify    RedactionType = "MODIFY"
	RedactAnonymize RedactionType = "ANONYMIZE"
)

// ContractCall carries a smart-contract invocation's payload.
type ContractCall struct {
	ContractAddress string  `json:"contract_address"`
	FunctionName    string  `json:"function_name"`
	Parameters      []int64 `json:"parameters"`
	Caller          int     `json:"caller"`
	GasLimit        uint64  `json:"gas_limit"`
	GasUsed         uint64  `json:"gas_used,omitempty"`
	Success         bool    `json:"success,omitempty"`
}

// RedactionRequestMetadata is the typed payload of a REDACTION_REQUEST
// transaction — a typed variant record rather than a duck-typed map.
type RedactionRequestMetadata struct {
	TargetBlock   int           `json:"target_block"`
	TargetTx      int           `json:"target_tx"`
	RedactionType RedactionType `json:"redaction_type"`
	Reason        string        `json:"reason"`
}

// Transaction is the atomic unit of work recorded on a node's chain.
// Sender/To are node ids; Timestamp is the creation time in simulated
// seconds, ReceivedAt is populated only in Full-propagation mode as the
// pair (created, received).
type Transaction struct {
	ID            string                    `json:"id"`
	Sender        int                       `json:"sender"`
	To            int                       `json:"to"`
	Value         uint64                    `json:"value"`
	Size          float64                   `json:"size"`
	Fee           float64                   `json:"fee"`
	Timestamp     float64                   `json:"timestamp"`
	ReceivedAt    float64                   `json:"received_at,omitempty"`
	Type          TxType                    `json:"tx_type"`
	ContractCall  *ContractCall             `json:"contract_call,omitempty"`
	RedactionMeta *RedactionRequestMetadata `json:"redaction_meta,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
	IsRedactable  bool                      `json:"is_redactable"`
	PrivacyLevel  PrivacyLevel              `json:"privacy_level"`
}

// Clone returns a copy of tx suitable for a per-node pool entry in
// Full-propagation mode, where a transaction travels between nodes as a
// message carrying a cloned copy. Nested pointers/maps are copied so no
// two nodes alias the same backing storage.
func (tx *Transaction) Clone() *Transaction {
	cp := *tx
	if tx.ContractCall != nil {
		cc := *tx.ContractCall
		cp.ContractCall = &cc
	}
	if tx.RedactionMeta != nil {
		rm := *tx.RedactionMeta
		cp.RedactionMeta = &rm
	}
	if tx.Metadata != nil {
		cp.Metadata = make(map[string]any, len(tx.Metadata))
		for k, v := range tx.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// ComputeTxRoot builds a deterministic, order-independent digest over a
// transaction list plus the parent block's id — the canonical(transactions,
// previous) input to the chameleon hash that gives a block its id. IDs are
// length-prefixed to avoid boundary ambiguity between different ID sets
// that could otherwise concatenate to the same byte sequence.
func ComputeTxRoot(txs []*Transaction, previous string) string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, id := range ids {
		b := []byte(id)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		buf.Write(lenBuf[:])
		buf.Write(b)
	}
	prev := []byte(previous)
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(prev)))
	buf.Write(lenBuf[:])
	buf.Write(prev)
	return crypto.Hash(buf.Bytes())
}
