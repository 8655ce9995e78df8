package contract

import (
	"fmt"

	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/events"
	"github.com/tolelom/redactchain/permission"
)

// Executor runs process_smart_contracts over a block's transactions: every
// CONTRACT_CALL is handed to the Registry and its result recorded on the
// block; every CONTRACT_DEPLOY by a DEPLOY-authorized miner allocates a new
// contract address.
type Executor struct {
	registry *Registry
	emitter  *events.Emitter
	addrSeq  int
}

// NewExecutor builds an Executor backed by registry, emitting contract
// lifecycle events through emitter.
func NewExecutor(registry *Registry, emitter *events.Emitter) *Executor {
	return &Executor{registry: registry, emitter: emitter}
}

// ProcessSmartContracts scans block.Transactions for CONTRACT_CALL and
// CONTRACT_DEPLOY and updates block/miner state in place.
func (e *Executor) ProcessSmartContracts(block *core.Block, miner *core.Node) {
	for _, tx := range block.Transactions {
		switch tx.Type {
		case core.TxContractCall:
			e.processCall(block, tx)
		case core.TxContractDeploy:
			e.processDeploy(block, miner, tx)
		}
	}
}

func (e *Executor) processCall(block *core.Block, tx *core.Transaction) {
	if tx.ContractCall == nil {
		return
	}
	gasUsed, success := e.registry.Execute(tx.ContractCall)
	tx.ContractCall.GasUsed = gasUsed
	tx.ContractCall.Success = success
	block.ContractCalls = append(block.ContractCalls, tx.ContractCall)
	e.emitter.Emit(events.Event{
		Type:      events.EventContractCalled,
		Timestamp: tx.Timestamp,
		NodeID:    tx.ContractCall.Caller,
		Data: map[string]any{
			"function":         tx.ContractCall.FunctionName,
			"gas_used":         gasUsed,
			"success":          success,
			"contract_address": tx.ContractCall.ContractAddress,
			"block_depth":      block.Depth,
		},
	})
}

func (e *Executor) processDeploy(block *core.Block, miner *core.Node, tx *core.Transaction) {
	if !permission.CanPerformAction(miner, permission.Deploy) {
		return
	}
	e.addrSeq++
	addr := fmt.Sprintf("contract-%d-%d", miner.ID, e.addrSeq)
	miner.DeployedContracts = append(miner.DeployedContracts, addr)
	block.SmartContracts = append(block.SmartContracts, addr)
	e.emitter.Emit(events.Event{
		Type:      events.EventContractDeployed,
		Timestamp: tx.Timestamp,
		NodeID:    miner.ID,
		Data:      map[string]any{"address": addr},
	})
}
