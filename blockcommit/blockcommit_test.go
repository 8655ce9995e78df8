package blockcommit

import (
	"math/rand"
	"testing"

	"github.com/tolelom/redactchain/consensus"
	"github.com/tolelom/redactchain/contract"
	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/crypto/chameleon"
	"github.com/tolelom/redactchain/eventqueue"
	"github.com/tolelom/redactchain/events"
	"github.com/tolelom/redactchain/network"
	"github.com/tolelom/redactchain/permission"
	"github.com/tolelom/redactchain/redaction"
	"github.com/tolelom/redactchain/stats"
)

type stubSource struct {
	txs []*core.Transaction
}

func (s stubSource) ExecuteTransactions(miner *core.Node, now, blockSize float64) ([]*core.Transaction, float64) {
	return s.txs, float64(len(s.txs))
}

func testHandler(t *testing.T, nodes []*core.Node, src TxSource) *Handler {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	var totalHash float64
	for _, n := range nodes {
		totalHash += n.HashPower
	}
	registry := permission.NewRegistry([]permission.Policy{
		{PolicyType: core.RedactDelete, AuthorizedRoles: map[core.Role]bool{core.RoleAdmin: true}, MinApprovals: 1},
	})
	return &Handler{
		Nodes:    nodes,
		Protocol: consensus.NewProtocol(1, totalHash, rng),
		Source:   src,
		Exec:     contract.NewExecutor(contract.NewRegistry(), events.NewEmitter()),
		Redact:   redaction.New(registry, chameleon.StubSharing{}, false, 0.1, rng),
		Delay:    network.NewDelayModel(0.01, 0.01, rng),
		Emitter:  events.NewEmitter(),
		Stats:    stats.New(),
		Cfg:      Config{Bsize: 100},
	}
}

func testNodes(t *testing.T) (*chameleon.Group, []*core.Node) {
	t.Helper()
	grp, err := chameleon.GenerateGroup(64)
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}
	genesis := core.NewGenesisBlock()
	miner, err := core.NewNode(0, 1, core.RoleMiner, grp, genesis)
	if err != nil {
		t.Fatal(err)
	}
	peer, err := core.NewNode(1, 1, core.RoleMiner, grp, genesis)
	if err != nil {
		t.Fatal(err)
	}
	permission.Apply(miner)
	permission.Apply(peer)
	return grp, []*core.Node{miner, peer}
}

func TestCreateBlockIgnoresStaleMiningAttempt(t *testing.T) {
	grp, nodes := testNodes(t)
	miner := nodes[0]
	h := testHandler(t, nodes, stubSource{})

	// moves the miner's tip forward without the pending stale block knowing
	stale := core.NewBlock(1, miner.ID, miner.LastBlock().ID, 0)
	fresh := core.NewBlock(1, miner.ID, miner.LastBlock().ID, 0)
	r, err := grp.RandomR()
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.Seal(grp, miner.ChameleonPK, r); err != nil {
		t.Fatal(err)
	}
	miner.Blockchain = append(miner.Blockchain, fresh)

	q := eventqueue.New()
	h.CreateBlock(q, miner, stale, 1.0)

	if len(miner.Blockchain) != 2 {
		t.Fatalf("a stale mining attempt must not be appended, got chain length %d", len(miner.Blockchain))
	}
}

func TestCreateBlockSealsAndSchedulesPropagation(t *testing.T) {
	_, nodes := testNodes(t)
	miner := nodes[0]
	h := testHandler(t, nodes, stubSource{})

	block := core.NewBlock(1, miner.ID, miner.LastBlock().ID, 0)
	q := eventqueue.New()
	h.CreateBlock(q, miner, block, 1.0)

	if len(miner.Blockchain) != 2 {
		t.Fatalf("expected the new block appended to the miner's own chain, got length %d", len(miner.Blockchain))
	}
	if h.Stats.TotalBlocks != 1 {
		t.Fatalf("expected TotalBlocks incremented once, got %d", h.Stats.TotalBlocks)
	}
	// one receive_block event for the peer, plus one create_block for the miner's next attempt
	if q.Len() != 2 {
		t.Fatalf("expected 2 scheduled events (peer receive + miner's next attempt), got %d", q.Len())
	}
}

func TestReceiveBlockAppendsWhenExtendingTip(t *testing.T) {
	grp, nodes := testNodes(t)
	miner, recipient := nodes[0], nodes[1]
	h := testHandler(t, nodes, stubSource{})

	block := core.NewBlock(1, miner.ID, recipient.LastBlock().ID, 0)
	r, err := grp.RandomR()
	if err != nil {
		t.Fatal(err)
	}
	if err := block.Seal(grp, miner.ChameleonPK, r); err != nil {
		t.Fatal(err)
	}

	q := eventqueue.New()
	h.ReceiveBlock(q, recipient, block, 1.0)

	if len(recipient.Blockchain) != 2 || recipient.Blockchain[1] != block {
		t.Fatal("expected block appended to recipient's chain")
	}
}

func TestReceiveBlockSwitchesToLongerFork(t *testing.T) {
	grp, nodes := testNodes(t)
	miner, recipient := nodes[0], nodes[1]
	h := testHandler(t, nodes, stubSource{})

	// miner races ahead by two blocks
	var prev = miner.LastBlock().ID
	for i := 1; i <= 2; i++ {
		b := core.NewBlock(i, miner.ID, prev, float64(i))
		r, err := grp.RandomR()
		if err != nil {
			t.Fatal(err)
		}
		if err := b.Seal(grp, miner.ChameleonPK, r); err != nil {
			t.Fatal(err)
		}
		miner.Blockchain = append(miner.Blockchain, b)
		prev = b.ID
	}

	// recipient receives only the tip (depth 2), which does not extend its own tip (depth 0)
	tip := miner.Blockchain[2]
	q := eventqueue.New()
	h.ReceiveBlock(q, recipient, tip, 3.0)

	if len(recipient.Blockchain) != 3 {
		t.Fatalf("expected recipient to switch onto the 3-block fork, got length %d", len(recipient.Blockchain))
	}
	if recipient.Blockchain[2].ID != tip.ID {
		t.Fatalf("expected recipient's new tip to match the received block, got %s", recipient.Blockchain[2].ID)
	}
}

func TestReceiveBlockIgnoresShorterCompetingBranch(t *testing.T) {
	grp, nodes := testNodes(t)
	miner, recipient := nodes[0], nodes[1]
	h := testHandler(t, nodes, stubSource{})

	// recipient already has 2 blocks of its own
	prev := recipient.LastBlock().ID
	for i := 1; i <= 2; i++ {
		b := core.NewBlock(i, recipient.ID, prev, float64(i))
		r, err := grp.RandomR()
		if err != nil {
			t.Fatal(err)
		}
		if err := b.Seal(grp, recipient.ChameleonPK, r); err != nil {
			t.Fatal(err)
		}
		recipient.Blockchain = append(recipient.Blockchain, b)
		prev = b.ID
	}

	// miner offers a competing depth-1 block that doesn't extend recipient's tip
	competing := core.NewBlock(1, miner.ID, "some-other-branch", 1.0)
	r, err := grp.RandomR()
	if err != nil {
		t.Fatal(err)
	}
	if err := competing.Seal(grp, miner.ChameleonPK, r); err != nil {
		t.Fatal(err)
	}

	q := eventqueue.New()
	h.ReceiveBlock(q, recipient, competing, 1.0)

	if len(recipient.Blockchain) != 3 {
		t.Fatalf("a shorter/equal competing branch must be ignored, chain length changed to %d", len(recipient.Blockchain))
	}
}

func TestProcessRedactionRequestsAdmitsAndApprovesOnQuorum(t *testing.T) {
	grp, err := chameleon.GenerateGroup(64)
	if err != nil {
		t.Fatal(err)
	}
	genesis := core.NewGenesisBlock()
	admin, err := core.NewNode(0, 0, core.RoleAdmin, grp, genesis)
	if err != nil {
		t.Fatal(err)
	}
	regulator, err := core.NewNode(1, 0, core.RoleRegulator, grp, genesis)
	if err != nil {
		t.Fatal(err)
	}
	permission.Apply(admin)
	permission.Apply(regulator)
	nodes := []*core.Node{admin, regulator}

	block := core.NewBlock(1, admin.ID, admin.LastBlock().ID, 0)
	target := &core.Transaction{ID: "tx-1"}
	block.Transactions = []*core.Transaction{target}
	r, err := grp.RandomR()
	if err != nil {
		t.Fatal(err)
	}
	if err := block.Seal(grp, admin.ChameleonPK, r); err != nil {
		t.Fatal(err)
	}
	admin.Blockchain = append(admin.Blockchain, block)

	reqTx := &core.Transaction{
		ID:     "tx-req",
		Sender: admin.ID,
		Type:   core.TxRedactionRequest,
		RedactionMeta: &core.RedactionRequestMetadata{
			TargetBlock:   1,
			TargetTx:      0,
			RedactionType: core.RedactDelete,
			Reason:        "test",
		},
	}
	carrierBlock := core.NewBlock(2, admin.ID, admin.LastBlock().ID, 1.0)
	carrierBlock.Transactions = []*core.Transaction{reqTx}

	h := testHandler(t, nodes, stubSource{})

	h.processRedactionRequests(carrierBlock, 1.0)
	if len(admin.RedactionRequests) != 1 {
		t.Fatalf("expected one admitted redaction request, got %d", len(admin.RedactionRequests))
	}
	var req *core.RedactionRequest
	for _, pending := range admin.RedactionRequests {
		req = pending
	}

	// DriveVoting's own Bernoulli sampling is exercised in the redaction
	// package tests. With two voters and a quorum of one, the first round
	// above polled only the admin, which cannot vote again; push the
	// never-polled regulator's quorum-granting vote directly so the next
	// processRedactionRequests round deterministically sees
	// Approvals >= RequiredApprovals and executes.
	if !h.Redact.VoteOnRedaction(regulator, req, true) {
		t.Fatal("expected the regulator's APPROVE-permitted vote to be accepted")
	}

	empty := core.NewBlock(3, admin.ID, admin.LastBlock().ID, 2.0)
	h.processRedactionRequests(empty, 2.0)

	if req.Status != core.StatusApproved {
		t.Fatalf("expected the request to reach APPROVED once quorum was met, got %s", req.Status)
	}
	if len(block.Transactions) != 0 {
		t.Fatalf("expected the target transaction removed once approved, got %d remaining", len(block.Transactions))
	}
	if h.Stats.RedactionApprovals != 1 {
		t.Fatalf("expected RedactionApprovals stat incremented, got %d", h.Stats.RedactionApprovals)
	}
}
