// Package simulator wires every collaborator package into one runnable
// discrete-event simulation: node/role/key setup, the event queue drain
// loop, fork resolution, the end-of-run redaction batch, and reward
// distribution.
package simulator

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/tolelom/redactchain/blockcommit"
	"github.com/tolelom/redactchain/config"
	"github.com/tolelom/redactchain/consensus"
	"github.com/tolelom/redactchain/contract"
	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/crypto/chameleon"
	"github.com/tolelom/redactchain/eventqueue"
	"github.com/tolelom/redactchain/events"
	"github.com/tolelom/redactchain/network"
	"github.com/tolelom/redactchain/permission"
	"github.com/tolelom/redactchain/redaction"
	"github.com/tolelom/redactchain/scheduler"
	"github.com/tolelom/redactchain/stats"
	"github.com/tolelom/redactchain/storage"
	"github.com/tolelom/redactchain/txfactory"
)

// groupBits is the chameleon group's prime size. 256 bits is ample for a
// simulation-only trapdoor and keeps KeyGen/Forge fast across thousands of
// nodes; see crypto/chameleon's package doc for why production-grade sizes
// are not needed here.
const groupBits = 256

// Simulator holds everything one run (or a batch of Runs) needs: resolved
// config, the shared chameleon group, the node roster, and every
// collaborator blockcommit.Handler depends on.
type Simulator struct {
	cfg   *config.Config
	rng   *rand.Rand
	group *chameleon.Group
	nodes []*core.Node

	protocol *consensus.Protocol
	emitter  *events.Emitter
	redact   *redaction.Engine
	handler  *blockcommit.Handler

	lightFactory *txfactory.LightFactory
	fullFactory  *txfactory.FullFactory
}

// New builds a Simulator from cfg. Role assignment, transaction generation,
// block timing, propagation delay and voting all draw from one rand.Rand
// seeded with seed. The chameleon group, node keys and block randomness come
// from crypto/rand and are not reproduced by seed, so block ids differ
// between two runs with the same seed.
func New(cfg *config.Config, seed int64) (*Simulator, error) {
	rng := rand.New(rand.NewSource(seed))

	group, err := chameleon.GenerateGroup(groupBits)
	if err != nil {
		return nil, fmt.Errorf("simulator: generate chameleon group: %w", err)
	}

	genesis := core.NewGenesisBlock()
	roster := cfg.AssignRoles(rng)
	nodes := make([]*core.Node, cfg.NumNodes)
	var totalHashPower float64
	for i, ra := range roster {
		n, err := core.NewNode(i, ra.HashPower, core.Role(ra.Role), group, genesis)
		if err != nil {
			return nil, fmt.Errorf("simulator: build node %d: %w", i, err)
		}
		permission.Apply(n)
		if cfg.Ttechnique == "Full" {
			n.TxPool = core.NewTxPool()
		}
		nodes[i] = n
		totalHashPower += ra.HashPower
	}

	emitter := events.NewEmitter()
	registry := contract.NewRegistry()
	executor := contract.NewExecutor(registry, emitter)
	policies := permission.NewRegistry(convertPolicies(cfg.RedactionPolicies))
	redactEngine := redaction.New(policies, chameleon.StubSharing{}, cfg.HasMulti, cfg.Rreward, rng)
	protocol := consensus.NewProtocol(cfg.Binterval, totalHashPower, rng)
	delay := network.NewDelayModel(cfg.Bdelay, cfg.Tdelay, rng)

	params := txfactory.Params{
		TxFeeMean:           cfg.Tfee,
		TxSizeMean:          cfg.Tsize,
		TypeDistribution:    typeWeights(cfg.TransactionTypeDistribution),
		PrivacyDistribution: privacyWeights(cfg.PrivacyLevelDistribution),
		HasSmartContracts:   cfg.HasSmartContracts,
		HasRedact:           cfg.HasRedact,
	}

	var source blockcommit.TxSource
	var lightFactory *txfactory.LightFactory
	var fullFactory *txfactory.FullFactory
	switch cfg.Ttechnique {
	case "Full":
		fullFactory = txfactory.NewFullFactory(params, rng, delay)
		source = fullFactory
	default:
		lightFactory = txfactory.NewLightFactory(params, rng)
		source = lightFactory
	}

	st := stats.New()
	wireStatsSubscriptions(emitter, st)

	handler := &blockcommit.Handler{
		Nodes:    nodes,
		Protocol: protocol,
		Source:   source,
		Exec:     executor,
		Redact:   redactEngine,
		Delay:    delay,
		Emitter:  emitter,
		Stats:    st,
		Cfg: blockcommit.Config{
			Bsize:     cfg.Bsize,
			HasRedact: cfg.HasRedact,
			HasMulti:  cfg.HasMulti,
		},
	}

	return &Simulator{
		cfg:          cfg,
		rng:          rng,
		group:        group,
		nodes:        nodes,
		protocol:     protocol,
		emitter:      emitter,
		redact:       redactEngine,
		handler:      handler,
		lightFactory: lightFactory,
		fullFactory:  fullFactory,
	}, nil
}

// Subscribe exposes the run's event emitter so a caller can observe block
// and redaction lifecycle events without reaching into the handler.
func (s *Simulator) Subscribe(typ events.EventType, h events.Handler) {
	s.emitter.Subscribe(typ, h)
}

// AdminNode returns the configured administrator node, the usual holder of
// a network-wide redaction trapdoor in single-admin (non-multi) mode.
func (s *Simulator) AdminNode() *core.Node {
	return nodeByID(s.nodes, s.cfg.AdminNode)
}

// VerifyChain re-checks Invariant A across every block on nodeID's local
// chain: each block's id must still equal the chameleon hash of its current
// transaction digest and randomness under the owning miner's public key,
// even after any redactions applied to it.
func (s *Simulator) VerifyChain(nodeID int) error {
	node := nodeByID(s.nodes, nodeID)
	if node == nil {
		return fmt.Errorf("simulator: no node %d", nodeID)
	}
	for _, block := range node.Blockchain {
		pk := node.ChameleonPK
		if miner := nodeByID(s.nodes, block.Miner); miner != nil {
			pk = miner.ChameleonPK
		}
		if err := block.VerifyIntegrity(s.group, pk); err != nil {
			return err
		}
	}
	return nil
}

// PersistChains writes every node's final local chain to store, keyed by
// node id, so a run can be inspected or diffed against another run after
// the process exits.
func (s *Simulator) PersistChains(store *storage.ChainStore) error {
	for _, n := range s.nodes {
		if err := store.PutChain(n.ID, n.Blockchain); err != nil {
			return fmt.Errorf("simulator: persist node %d chain: %w", n.ID, err)
		}
	}
	return nil
}

// Run drains one full discrete-event simulation: it generates the initial
// transaction pool(s), seeds a create_block event per miner, processes the
// event queue until simulated time runs out, resolves the canonical fork,
// executes the end-of-run redaction batch, and distributes block
// rewards. It returns the accumulated Statistics for this run.
func (s *Simulator) Run() *stats.Statistics {
	if s.cfg.HasTrans {
		s.generateTransactions()
	}

	q := eventqueue.New()
	for _, n := range s.nodes {
		if n.IsMiner() {
			scheduler.CreateBlockEvent(q, n, s.protocol.NextBlockTime(n))
		}
	}

	var clock float64
	for !q.IsEmpty() && clock <= s.cfg.SimTime {
		ev, ok := q.PopMin()
		if !ok {
			break
		}
		clock = ev.Time
		switch ev.Kind {
		case eventqueue.CreateBlock:
			s.handler.CreateBlock(q, ev.Node.(*core.Node), ev.Block.(*core.Block), clock)
		case eventqueue.ReceiveBlock:
			s.handler.ReceiveBlock(q, ev.Node.(*core.Node), ev.Block.(*core.Block), clock)
		}
	}

	fork := consensus.ResolveFork(s.nodes, s.handler.Stats.TotalBlocks)
	s.handler.Stats.MainBlocks = fork.MainBlocks
	s.handler.Stats.StaleBlocks = fork.StaleBlocks

	if s.cfg.HasRedact {
		s.runRedactionBatch()
	}

	s.distributeRewards(fork)

	return s.handler.Stats
}

func (s *Simulator) generateTransactions() {
	nodeIDs := make([]int, len(s.nodes))
	for i, n := range s.nodes {
		nodeIDs[i] = n.ID
	}
	switch s.cfg.Ttechnique {
	case "Full":
		s.fullFactory.CreateTransactions(s.nodes, s.cfg.Tn, s.cfg.SimTime)
	default:
		s.lightFactory.CreateTransactions(nodeIDs, s.cfg.Tn, s.cfg.Binterval, 0)
	}
}

// runRedactionBatch performs cfg.RedactRuns direct redaction operations
// against randomly chosen blocks, bypassing the request/vote workflow —
// mirroring generate_redaction_event's direct delete_tx/redact_tx calls in
// the original simulator, which likewise carries no admission check of its
// own (the request/vote path in blockcommit.Handler covers the governed
// case; this batch demonstrates the already-approved case).
func (s *Simulator) runRedactionBatch() {
	miners := minersOf(s.nodes)
	if len(miners) == 0 {
		return
	}
	redactionTypes := []core.RedactionType{core.RedactDelete, core.RedactModify, core.RedactAnonymize}

	for i := 0; i < s.cfg.RedactRuns; i++ {
		var requester *core.Node
		if s.cfg.HasMulti {
			requester = miners[s.rng.Intn(len(miners))]
		} else {
			requester = s.nodes[s.cfg.AdminNode]
		}
		if len(requester.Blockchain) < 2 {
			continue
		}
		blockIdx := 1 + s.rng.Intn(len(requester.Blockchain)-1)
		block := requester.Blockchain[blockIdx]
		if len(block.Transactions) == 0 {
			continue
		}
		txIdx := s.rng.Intn(len(block.Transactions))
		typ := redactionTypes[s.rng.Intn(len(redactionTypes))]

		req := &core.RedactionRequest{
			RequestID:     uuid.NewString(),
			Requester:     requester.ID,
			TargetBlock:   blockIdx,
			TargetTx:      txIdx,
			RedactionType: typ,
			Reason:        "scheduled redaction run",
			Timestamp:     s.cfg.SimTime,
			Status:        core.StatusApproved,
		}
		rec, err := s.redact.ExecuteApproved(req, s.nodes, s.cfg.SimTime)
		if err != nil {
			continue
		}
		if rec != nil {
			s.handler.Stats.RecordRedaction(*rec, requester.ID, requester.Role)
		}
	}
}

// distributeRewards pays Breward to the miner of each block on the
// canonical chain, as resolved by fork. Stale blocks earn nothing.
func (s *Simulator) distributeRewards(fork consensus.ForkStats) {
	canonical := nodeByID(s.nodes, fork.CanonicalOwner)
	if canonical == nil {
		return
	}
	for _, block := range canonical.Blockchain {
		if block.BlockType == core.BlockGenesis {
			continue
		}
		if miner := nodeByID(s.nodes, block.Miner); miner != nil {
			miner.Balance += uint64(s.cfg.Breward)
		}
	}
}

// wireStatsSubscriptions decouples reporting from the handlers that produce
// the data: block-mined and contract events append their corresponding rows
// to st, independent of the blockcommit/contract packages' own logic.
func wireStatsSubscriptions(emitter *events.Emitter, st *stats.Statistics) {
	emitter.Subscribe(events.EventBlockMined, func(ev events.Event) {
		st.BlockRows = append(st.BlockRows, stats.BlockRow{
			Depth:     intFrom(ev.Data["depth"]),
			ID:        stringFrom(ev.Data["id"]),
			Previous:  stringFrom(ev.Data["previous"]),
			Timestamp: ev.Timestamp,
			Miner:     ev.NodeID,
			NumTx:     intFrom(ev.Data["num_tx"]),
			Size:      floatFrom(ev.Data["size"]),
		})
	})
	emitter.Subscribe(events.EventContractCalled, func(ev events.Event) {
		st.ContractCallCount++
		st.ContractCalls = append(st.ContractCalls, stats.ContractCallRow{
			BlockDepth:      intFrom(ev.Data["block_depth"]),
			ContractAddress: stringFrom(ev.Data["contract_address"]),
			FunctionName:    stringFrom(ev.Data["function"]),
			GasUsed:         uint64(intFrom(ev.Data["gas_used"])),
			Success:         ev.Data["success"] == true,
		})
	})
	emitter.Subscribe(events.EventContractDeployed, func(ev events.Event) {
		st.ContractDeploymentCount++
	})
}

func intFrom(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case uint64:
		return int(n)
	default:
		return 0
	}
}

func floatFrom(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}

func stringFrom(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
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

func nodeByID(nodes []*core.Node, id int) *core.Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func convertPolicies(src []config.RedactionPolicy) []permission.Policy {
	out := make([]permission.Policy, len(src))
	for i, p := range src {
		roles := make(map[core.Role]bool, len(p.AuthorizedRoles))
		for _, r := range p.AuthorizedRoles {
			roles[core.Role(r)] = true
		}
		out[i] = permission.Policy{
			PolicyID:        p.PolicyID,
			PolicyType:      core.RedactionType(p.PolicyType),
			Conditions:      p.Conditions,
			AuthorizedRoles: roles,
			MinApprovals:    p.MinApprovals,
			TimeLockSeconds: p.TimeLockSeconds,
		}
	}
	return out
}

// typeWeights converts the configured distribution to a slice sorted by key,
// so sampleType's cumulative-weight walk is reproducible from one rng seed
// regardless of Go's randomized map iteration order.
func typeWeights(dist map[string]float64) []txfactory.TypeWeight {
	keys := sortedKeys(dist)
	out := make([]txfactory.TypeWeight, len(keys))
	for i, k := range keys {
		out[i] = txfactory.TypeWeight{Type: core.TxType(k), Weight: dist[k]}
	}
	return out
}

func privacyWeights(dist map[string]float64) []txfactory.PrivacyWeight {
	keys := sortedKeys(dist)
	out := make([]txfactory.PrivacyWeight, len(keys))
	for i, k := range keys {
		out[i] = txfactory.PrivacyWeight{Level: core.PrivacyLevel(k), Weight: dist[k]}
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
