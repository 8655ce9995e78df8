package redaction

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/crypto/chameleon"
	"github.com/tolelom/redactchain/permission"
)

func testGroup(t *testing.T) *chameleon.Group {
	t.Helper()
	grp, err := chameleon.GenerateGroup(64)
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}
	return grp
}

func testNode(t *testing.T, id int, role core.Role, grp *chameleon.Group, genesis *core.Block) *core.Node {
	t.Helper()
	n, err := core.NewNode(id, 1, role, grp, genesis)
	if err != nil {
		t.Fatal(err)
	}
	permission.Apply(n)
	return n
}

func sealBlockOn(t *testing.T, n *core.Node, depth int, txs []*core.Transaction) *core.Block {
	t.Helper()
	b := core.NewBlock(depth, n.ID, n.LastBlock().ID, 0)
	b.Transactions = txs
	r, err := n.ChameleonGroup.RandomR()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Seal(n.ChameleonGroup, n.ChameleonPK, r); err != nil {
		t.Fatal(err)
	}
	n.Blockchain = append(n.Blockchain, b)
	return b
}

func testRegistry() *permission.Registry {
	return permission.NewRegistry([]permission.Policy{
		{
			PolicyType:      core.RedactDelete,
			AuthorizedRoles: map[core.Role]bool{core.RoleAdmin: true},
			MinApprovals:    1,
		},
	})
}

func TestRequestRedactionRejectsUnauthorizedRole(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	user := testNode(t, 1, core.RoleUser, grp, genesis)

	e := New(testRegistry(), chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	if _, err := e.RequestRedaction(user, 0, 0, core.RedactDelete, "test", nil, 0); err == nil {
		t.Fatal("a USER without REDACT permission must not be able to request a redaction")
	}
}

func TestRequestRedactionAdmitsAuthorizedRequester(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)

	e := New(testRegistry(), chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req, err := e.RequestRedaction(admin, 1, 0, core.RedactDelete, "test", nil, 0)
	if err != nil {
		t.Fatalf("RequestRedaction: %v", err)
	}
	if req.Status != core.StatusPending {
		t.Fatalf("a new request must start PENDING, got %s", req.Status)
	}
	if req.RequiredApprovals != 1 {
		t.Fatalf("expected quorum 1 from the registered policy, got %d", req.RequiredApprovals)
	}
}

func TestVoteOnRedactionRejectsDuplicateVoter(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	regulator := testNode(t, 1, core.RoleRegulator, grp, genesis)

	e := New(testRegistry(), chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req, err := e.RequestRedaction(admin, 1, 0, core.RedactDelete, "test", nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if ok := e.VoteOnRedaction(regulator, req, true); !ok {
		t.Fatal("first vote from an authorized voter should be accepted")
	}
	if ok := e.VoteOnRedaction(regulator, req, true); ok {
		t.Fatal("a second vote from the same voter on the same request must be rejected")
	}
	if req.Approvals != 1 {
		t.Fatalf("duplicate vote must not double-count approvals, got %d", req.Approvals)
	}
}

func TestDeleteRemovesTransactionAndPreservesBlockID(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	nodes := []*core.Node{admin}

	block := sealBlockOn(t, admin, 1, []*core.Transaction{{ID: "tx-1"}, {ID: "tx-2"}})
	originalID := block.ID
	originalR := new(big.Int).Set(block.R)

	e := New(testRegistry(), chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req := &core.RedactionRequest{RequestID: "r1", Requester: admin.ID, TargetBlock: 1, TargetTx: 0, RedactionType: core.RedactDelete}

	rec, err := e.Delete(req, nodes, 0)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.TxID != "tx-1" {
		t.Fatalf("expected the removed transaction's id to be recorded, got %s", rec.TxID)
	}
	if len(block.Transactions) != 1 || block.Transactions[0].ID != "tx-2" {
		t.Fatalf("expected only tx-2 to remain, got %+v", block.Transactions)
	}
	if block.ID != originalID {
		t.Fatalf("forge must preserve the block digest: got %s, want %s", block.ID, originalID)
	}
	if block.R.Cmp(originalR) == 0 {
		t.Fatal("forge must produce a new r even though the digest is unchanged")
	}
	if err := block.VerifyIntegrity(grp, admin.ChameleonPK); err != nil {
		t.Fatalf("redacted block must still satisfy Invariant A: %v", err)
	}
	if len(block.RedactionHistory) != 1 {
		t.Fatalf("expected one redaction_history entry, got %d", len(block.RedactionHistory))
	}
}

func TestModifyZeroesValueAndFlagsMetadata(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	nodes := []*core.Node{admin}

	block := sealBlockOn(t, admin, 1, []*core.Transaction{{ID: "tx-1", Value: 500}})

	e := New(testRegistry(), chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req := &core.RedactionRequest{RequestID: "r1", Requester: admin.ID, TargetBlock: 1, TargetTx: 0, RedactionType: core.RedactModify}

	if _, err := e.Modify(req, nodes, 0); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	tx := block.Transactions[0]
	if tx.Value != 0 {
		t.Fatalf("expected modified transaction's value zeroed, got %d", tx.Value)
	}
	if tx.Metadata["redacted"] != true {
		t.Fatal("expected metadata[redacted]=true after Modify")
	}
	if err := block.VerifyIntegrity(grp, admin.ChameleonPK); err != nil {
		t.Fatalf("block must still verify after Modify: %v", err)
	}
}

func TestAnonymizeStripsIdentities(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	nodes := []*core.Node{admin}

	block := sealBlockOn(t, admin, 1, []*core.Transaction{{ID: "tx-1", Sender: 3, To: 4}})

	e := New(testRegistry(), chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req := &core.RedactionRequest{RequestID: "r1", Requester: admin.ID, TargetBlock: 1, TargetTx: 0, RedactionType: core.RedactAnonymize}

	if _, err := e.Anonymize(req, nodes, 0); err != nil {
		t.Fatalf("Anonymize: %v", err)
	}
	tx := block.Transactions[0]
	if tx.Sender != 0 || tx.To != 0 {
		t.Fatalf("expected sender/recipient stripped, got sender=%d to=%d", tx.Sender, tx.To)
	}
	if tx.Metadata["anonymized"] != true {
		t.Fatal("expected metadata[anonymized]=true after Anonymize")
	}
}

func TestDriveVotingRejectsWhenQuorumUnreachable(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	regulator := testNode(t, 1, core.RoleRegulator, grp, genesis)
	nodes := []*core.Node{admin, regulator}

	registry := permission.NewRegistry([]permission.Policy{
		{
			PolicyType:      core.RedactDelete,
			AuthorizedRoles: map[core.Role]bool{core.RoleAdmin: true},
			// Only two authorized voters (admin, regulator) exist in this
			// network; requiring 3 approvals can never reach quorum.
			MinApprovals: 3,
		},
	})

	e := New(registry, chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req, err := e.RequestRedaction(admin, 1, 0, core.RedactDelete, "test", nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.DriveVoting(req, nodes, 0); err != nil {
		t.Fatalf("DriveVoting: %v", err)
	}
	if req.Status != core.StatusRejected {
		t.Fatalf("expected REJECTED when quorum is unreachable, got %s", req.Status)
	}
}

func TestDriveVotingStaysPendingWhenQuorumStillReachable(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	regulator1 := testNode(t, 1, core.RoleRegulator, grp, genesis)
	regulator2 := testNode(t, 2, core.RoleRegulator, grp, genesis)
	nodes := []*core.Node{admin, regulator1, regulator2}

	registry := permission.NewRegistry([]permission.Policy{
		{
			PolicyType:      core.RedactDelete,
			AuthorizedRoles: map[core.Role]bool{core.RoleAdmin: true},
			MinApprovals:    2,
		},
	})

	e := New(registry, chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req, err := e.RequestRedaction(admin, 1, 0, core.RedactDelete, "test", nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Two of the three authorized voters disapprove up front. With a quorum
	// of two, DriveVoting polls exactly the first two voters — these same
	// two — so it adds no approval, yet three voters with no approvals can
	// still reach quorum: exactly the boundary where the request must stay
	// PENDING rather than flip to REJECTED.
	e.VoteOnRedaction(admin, req, false)
	e.VoteOnRedaction(regulator1, req, false)

	if _, err := e.DriveVoting(req, nodes, 0); err != nil {
		t.Fatalf("DriveVoting: %v", err)
	}
	if req.Status != core.StatusPending {
		t.Fatalf("expected PENDING while quorum is still reachable, got %s", req.Status)
	}
}

func TestDriveVotingHonorsPolicyTimeLock(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	regulator := testNode(t, 1, core.RoleRegulator, grp, genesis)
	nodes := []*core.Node{admin, regulator}
	sealBlockOn(t, admin, 1, []*core.Transaction{{ID: "tx-1"}})

	registry := permission.NewRegistry([]permission.Policy{
		{
			PolicyType:      core.RedactDelete,
			AuthorizedRoles: map[core.Role]bool{core.RoleAdmin: true},
			MinApprovals:    1,
			TimeLockSeconds: 100,
		},
	})

	e := New(registry, chameleon.StubSharing{}, false, 0.1, rand.New(rand.NewSource(1)))
	req, err := e.RequestRedaction(admin, 1, 0, core.RedactDelete, "test", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if req.TimeLock != 100 {
		t.Fatalf("expected request to carry the policy's time_lock, got %v", req.TimeLock)
	}

	if _, err := e.DriveVoting(req, nodes, 50); err != nil {
		t.Fatalf("DriveVoting: %v", err)
	}
	if req.Status != core.StatusPending {
		t.Fatalf("expected PENDING before the time-lock elapses, got %s", req.Status)
	}
	if len(req.Voters) != 0 {
		t.Fatal("no voting round should run before the time-lock elapses")
	}

	// Cast the approving vote directly so the outcome below doesn't depend
	// on DriveVoting's internal Bernoulli draw.
	e.VoteOnRedaction(admin, req, true)
	if _, err := e.DriveVoting(req, nodes, 120); err != nil {
		t.Fatalf("DriveVoting: %v", err)
	}
	if req.Status != core.StatusApproved {
		t.Fatalf("expected APPROVED once the time-lock has elapsed and quorum is met, got %s", req.Status)
	}
}

func TestMultiModeBroadcastsRedactionToPeers(t *testing.T) {
	grp := testGroup(t)
	genesis := core.NewGenesisBlock()
	admin := testNode(t, 0, core.RoleAdmin, grp, genesis)
	peer := testNode(t, 1, core.RoleUser, grp, genesis)

	block := sealBlockOn(t, admin, 1, []*core.Transaction{{ID: "tx-1"}, {ID: "tx-2"}})
	// peer starts with an identical block at the same depth
	peerBlock := *block
	peerBlock.Transactions = append([]*core.Transaction(nil), block.Transactions...)
	peer.Blockchain = append(peer.Blockchain, &peerBlock)

	nodes := []*core.Node{admin, peer}
	e := New(testRegistry(), chameleon.StubSharing{}, true, 0.1, rand.New(rand.NewSource(1)))
	req := &core.RedactionRequest{RequestID: "r1", Requester: admin.ID, TargetBlock: 1, TargetTx: 0, RedactionType: core.RedactDelete}

	if _, err := e.Delete(req, nodes, 0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(peer.Blockchain[1].Transactions) != 1 {
		t.Fatalf("expected multi-trapdoor mode to broadcast the redaction to peer's same-depth block, got %d tx", len(peer.Blockchain[1].Transactions))
	}
	if peer.Blockchain[1].ID != admin.Blockchain[1].ID {
		t.Fatal("peer's block id must match the requester's post-redaction id after broadcast")
	}
}
