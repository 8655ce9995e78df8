// Package txfactory generates and selects transactions for block inclusion,
// in the two propagation modes the simulator supports: Light (one shared
// pool) and Full (a deep-copied pool per node with per-link delay).
package txfactory

import (
	"fmt"
	"math/rand"

	"github.com/tolelom/redactchain/core"
)

// TypeWeight pairs a transaction type with its selection probability mass;
// weights need not sum to 1 and are normalized at sample time.
type TypeWeight struct {
	Type   core.TxType
	Weight float64
}

// PrivacyWeight pairs a privacy level with its selection probability mass.
type PrivacyWeight struct {
	Level  core.PrivacyLevel
	Weight float64
}

// Params bundles the generation parameters shared by both propagation
// modes, read from the simulator's resolved configuration.
type Params struct {
	TxFeeMean           float64
	TxSizeMean          float64
	TypeDistribution    []TypeWeight
	PrivacyDistribution []PrivacyWeight
	DeployedContracts   []string
	HasSmartContracts   bool
	HasRedact           bool
}

func sampleType(rng *rand.Rand, dist []TypeWeight) core.TxType {
	total := 0.0
	for _, w := range dist {
		total += w.Weight
	}
	r := rng.Float64() * total
	for _, w := range dist {
		if r < w.Weight {
			return w.Type
		}
		r -= w.Weight
	}
	return dist[len(dist)-1].Type
}

func samplePrivacy(rng *rand.Rand, dist []PrivacyWeight) core.PrivacyLevel {
	total := 0.0
	for _, w := range dist {
		total += w.Weight
	}
	r := rng.Float64() * total
	for _, w := range dist {
		if r < w.Weight {
			return w.Level
		}
		r -= w.Weight
	}
	return dist[len(dist)-1].Level
}

// newTransaction builds one transaction body shared by Light and Full
// generation: sender/recipient, size/fee draws, type and privacy sampling,
// and the CONTRACT_CALL/REDACTION_REQUEST payload attachment.
func newTransaction(rng *rand.Rand, params Params, nodeIDs []int, idSeq *int, timestamp float64) *core.Transaction {
	*idSeq++
	tx := &core.Transaction{
		ID:           fmt.Sprintf("tx-%d", *idSeq),
		Sender:       nodeIDs[rng.Intn(len(nodeIDs))],
		To:           nodeIDs[rng.Intn(len(nodeIDs))],
		Size:         rng.ExpFloat64() * params.TxSizeMean,
		Fee:          rng.ExpFloat64() * params.TxFeeMean,
		Timestamp:    timestamp,
		Type:         sampleType(rng, params.TypeDistribution),
		IsRedactable: true,
		PrivacyLevel: samplePrivacy(rng, params.PrivacyDistribution),
	}

	switch tx.Type {
	case core.TxContractCall:
		addr := ""
		if len(params.DeployedContracts) > 0 {
			addr = params.DeployedContracts[rng.Intn(len(params.DeployedContracts))]
		}
		tx.ContractCall = &core.ContractCall{
			ContractAddress: addr,
			FunctionName:    []string{"transfer", "approve", "mint", "burn", "getData"}[rng.Intn(5)],
			Parameters:      []int64{int64(rng.Intn(1000) + 1), int64(rng.Intn(100) + 1)},
			Caller:          tx.Sender,
			GasLimit:        uint64(rng.Intn(150_000) + 50_000),
		}
		tx.Size *= 1.5
	case core.TxContractDeploy:
		tx.Size *= 3
		tx.Fee *= 2
	case core.TxRedactionRequest:
		tx.IsRedactable = false // Invariant: REDACTION_REQUEST transactions are never themselves redactable
		tx.RedactionMeta = &core.RedactionRequestMetadata{
			TargetBlock:   rng.Intn(10) + 1,
			TargetTx:      rng.Intn(6),
			RedactionType: []core.RedactionType{core.RedactDelete, core.RedactModify, core.RedactAnonymize}[rng.Intn(3)],
			Reason:        "privacy compliance",
		}
	}

	if tx.PrivacyLevel == core.PrivacyConfidential {
		tx.IsRedactable = true
	}
	return tx
}

// LightFactory maintains the single pending pool shared by every node when
// the simulator runs in Light propagation mode.
type LightFactory struct {
	pending []*core.Transaction
	idSeq   int
	rng     *rand.Rand
	params  Params
}

// NewLightFactory builds a LightFactory sourced from rng.
func NewLightFactory(params Params, rng *rand.Rand) *LightFactory {
	return &LightFactory{rng: rng, params: params}
}

// CreateTransactions regenerates the shared pool with Tn*Binterval fresh
// transactions, replacing whatever was left over from the previous block.
func (f *LightFactory) CreateTransactions(nodeIDs []int, tn, binterval, timestamp float64) {
	count := int(tn * binterval)
	f.pending = make([]*core.Transaction, 0, count)
	for i := 0; i < count; i++ {
		f.pending = append(f.pending, newTransaction(f.rng, f.params, nodeIDs, &f.idSeq, timestamp))
	}
	f.rng.Shuffle(len(f.pending), func(i, j int) {
		f.pending[i], f.pending[j] = f.pending[j], f.pending[i]
	})
}

// ExecuteTransactions greedily selects the highest-fee transactions from
// the shared pool that fit within blockSize. miner and now are accepted
// only so LightFactory and FullFactory satisfy the same blockcommit.TxSource
// interface; Light mode's pool has no per-node or per-link visibility.
func (f *LightFactory) ExecuteTransactions(miner *core.Node, now, blockSize float64) (selected []*core.Transaction, totalSize float64) {
	pool := core.NewTxPool()
	for _, tx := range f.pending {
		pool.Add(tx)
	}
	selected = pool.Select(0, blockSize)
	for _, tx := range selected {
		totalSize += tx.Size
	}
	return selected, totalSize
}
