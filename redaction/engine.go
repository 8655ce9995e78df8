// Package redaction drives the governance workflow around the three
// digest-preserving block mutations: request admission, quorum voting, and
// execution of an approved request against the requester's own chain.
package redaction

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/crypto/chameleon"
	"github.com/tolelom/redactchain/permission"
)

// Engine owns the redaction-request lifecycle for one simulation run.
type Engine struct {
	policies *permission.Registry
	sharing  chameleon.SecretSharing
	multi    bool
	rreward  float64
	rng      *rand.Rand
}

// New builds an Engine. multi enables the multi-trapdoor variant, which
// invokes SecretSharing before forging and broadcasts the result to every
// peer's same-indexed block.
func New(policies *permission.Registry, sharing chameleon.SecretSharing, multi bool, rreward float64, rng *rand.Rand) *Engine {
	return &Engine{policies: policies, sharing: sharing, multi: multi, rreward: rreward, rng: rng}
}

// RequestRedaction admits a new PENDING request from requester, provided it
// holds REDACT permission and the policy for this redaction type authorizes
// its role. Returns the created request, or an error if admission fails.
func (e *Engine) RequestRedaction(requester *core.Node, targetBlock, targetTx int, typ core.RedactionType, reason string, metadata map[string]string, now float64) (*core.RedactionRequest, error) {
	if !permission.CanPerformAction(requester, permission.Redact) {
		return nil, errRedactPermission(requester.ID)
	}
	ok, pol := e.policies.Admissible(typ, requester, metadata)
	if !ok {
		return nil, errPolicyInadmissible(requester.ID, typ)
	}
	req := &core.RedactionRequest{
		RequestID:         uuid.NewString(),
		Requester:         requester.ID,
		TargetBlock:       targetBlock,
		TargetTx:          targetTx,
		RedactionType:     typ,
		Reason:            reason,
		Timestamp:         now,
		Status:            core.StatusPending,
		RequiredApprovals: requiredApprovals(pol, e.policies, typ),
		TimeLock:          pol.TimeLockSeconds,
	}
	requester.RedactionRequests[req.RequestID] = req
	return req, nil
}

func requiredApprovals(pol permission.Policy, reg *permission.Registry, typ core.RedactionType) int {
	if pol.MinApprovals > 0 {
		return pol.MinApprovals
	}
	return reg.RequiredApprovals(typ)
}

// VoteOnRedaction records voter's ballot on req. It requires APPROVE
// permission and silently rejects a duplicate vote from the same voter, per
// the Node invariant that each voter acts at most once per request.
func (e *Engine) VoteOnRedaction(voter *core.Node, req *core.RedactionRequest, approve bool) bool {
	if !permission.CanPerformAction(voter, permission.Approve) {
		return false
	}
	if voter.VotedRedactions[req.RequestID] {
		return false
	}
	voter.VotedRedactions[req.RequestID] = true
	if approve {
		req.Approvals++
		req.Voters = append(req.Voters, voter.ID)
	}
	return true
}

// DriveVoting runs one round of automated voting for req: it enumerates the
// ADMIN/REGULATOR voters, samples how many participate this round, and
// casts a Bernoulli(0.7) ballot for each voter that has not yet voted. It
// transitions req to APPROVED or REJECTED when the quorum math demands it,
// and leaves it PENDING otherwise. On approval it immediately executes the
// redaction against the requester's chain. A request whose policy carries a
// nonzero TimeLock stays PENDING, with no voting round run at all, until
// now - req.Timestamp >= req.TimeLock.
func (e *Engine) DriveVoting(req *core.RedactionRequest, allNodes []*core.Node, now float64) (*core.RedactedTxRecord, error) {
	if req.TimeLock > 0 && now-req.Timestamp < req.TimeLock {
		return nil, nil
	}

	voters := authorizedVoters(allNodes)
	if len(voters) <= req.RequiredApprovals {
		// Quorum can never be reached with this many authorized voters:
		// reject immediately rather than leaving the request PENDING forever.
		req.Status = core.StatusRejected
		return nil, nil
	}

	k := req.RequiredApprovals + e.rng.Intn(len(voters)-req.RequiredApprovals)
	for _, voter := range voters[:k] {
		if voter.VotedRedactions[req.RequestID] {
			continue
		}
		approve := e.rng.Float64() < 0.7
		e.VoteOnRedaction(voter, req, approve)
	}

	switch {
	case req.Approvals >= req.RequiredApprovals:
		req.Status = core.StatusApproved
		return e.ExecuteApproved(req, allNodes, now)
	case len(voters)-req.Approvals < req.RequiredApprovals:
		req.Status = core.StatusRejected
	}
	return nil, nil
}

// ExecuteApproved dispatches an APPROVED request to the matching
// DELETE/MODIFY/ANONYMIZE primitive.
func (e *Engine) ExecuteApproved(req *core.RedactionRequest, nodes []*core.Node, now float64) (*core.RedactedTxRecord, error) {
	switch req.RedactionType {
	case core.RedactDelete:
		return e.Delete(req, nodes, now)
	case core.RedactModify:
		return e.Modify(req, nodes, now)
	case core.RedactAnonymize:
		return e.Anonymize(req, nodes, now)
	default:
		return nil, errUnknownRedactionType(req.RedactionType)
	}
}

func authorizedVoters(nodes []*core.Node) []*core.Node {
	var voters []*core.Node
	for _, n := range nodes {
		if n.Role == core.RoleAdmin || n.Role == core.RoleRegulator {
			voters = append(voters, n)
		}
	}
	return voters
}
