package permission

import (
	"testing"

	"github.com/tolelom/redactchain/core"
)

func TestApplyGrantsRoleTablePermissions(t *testing.T) {
	n := &core.Node{Role: core.RoleMiner}
	Apply(n)

	if !CanPerformAction(n, Mine) {
		t.Fatal("a miner must hold MINE permission")
	}
	if CanPerformAction(n, Redact) {
		t.Fatal("a miner must not hold REDACT permission")
	}
}

func TestObserverIsReadOnly(t *testing.T) {
	n := &core.Node{Role: core.RoleObserver}
	Apply(n)

	for _, p := range []Permission{Write, Mine, Redact, Approve, Deploy, Audit, Transact} {
		if CanPerformAction(n, p) {
			t.Fatalf("observer must not hold %s", p)
		}
	}
	if !CanPerformAction(n, Read) {
		t.Fatal("observer must hold READ")
	}
}

func TestRegistryAdmissibleChecksRoleAndConditions(t *testing.T) {
	reg := NewRegistry([]Policy{{
		PolicyType:      core.RedactDelete,
		AuthorizedRoles: map[core.Role]bool{core.RoleAdmin: true},
		Conditions:      map[string]string{"privacy_request": "true"},
		MinApprovals:    2,
	}})

	admin := &core.Node{Role: core.RoleAdmin}
	ok, pol := reg.Admissible(core.RedactDelete, admin, map[string]string{"privacy_request": "true"})
	if !ok {
		t.Fatal("admin with matching condition should be admissible")
	}
	if pol.MinApprovals != 2 {
		t.Fatalf("expected MinApprovals 2, got %d", pol.MinApprovals)
	}

	if ok, _ := reg.Admissible(core.RedactDelete, admin, map[string]string{"privacy_request": "false"}); ok {
		t.Fatal("mismatched condition must not be admissible")
	}

	user := &core.Node{Role: core.RoleUser}
	if ok, _ := reg.Admissible(core.RedactDelete, user, map[string]string{"privacy_request": "true"}); ok {
		t.Fatal("unauthorized role must not be admissible")
	}
}

func TestRegistryAdmissibleRejectsUnknownPolicyType(t *testing.T) {
	reg := NewRegistry(nil)
	admin := &core.Node{Role: core.RoleAdmin}
	if ok, _ := reg.Admissible(core.RedactModify, admin, nil); ok {
		t.Fatal("a redaction type with no registered policy must never be admissible")
	}
}

func TestRegistryRequiredApprovalsDefaultsToTwo(t *testing.T) {
	reg := NewRegistry(nil)
	if got := reg.RequiredApprovals(core.RedactAnonymize); got != 2 {
		t.Fatalf("expected default quorum of 2, got %d", got)
	}
}
