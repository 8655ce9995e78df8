// Package permission implements the fixed role-to-permission map and the
// policy evaluation rules that gate redaction-request admission.
package permission

import "github.com/tolelom/redactchain/core"

// Permission is a single grantable capability.
type Permission string

const (
	Read     Permission = "READ"
	Write    Permission = "WRITE"
	Deploy   Permission = "DEPLOY"
	Redact   Permission = "REDACT"
	Approve  Permission = "APPROVE"
	Audit    Permission = "AUDIT"
	Mine     Permission = "MINE"
	Validate Permission = "VALIDATE"
	Transact Permission = "TRANSACT"
)

// RoleTable maps each role to its fixed permission set. The table is not
// configurable at runtime: every simulation run is governed by the same
// five rows.
var RoleTable = map[core.Role][]Permission{
	core.RoleAdmin:     {Read, Write, Deploy, Redact, Approve, Audit},
	core.RoleRegulator: {Read, Audit, Redact, Approve},
	core.RoleMiner:     {Read, Write, Mine, Validate},
	core.RoleUser:      {Read, Write, Transact},
	core.RoleObserver:  {Read},
}

// PermissionsFor returns the permission set granted to role.
func PermissionsFor(role core.Role) map[Permission]bool {
	set := make(map[Permission]bool)
	for _, p := range RoleTable[role] {
		set[p] = true
	}
	return set
}

// CanPerformAction reports whether node holds the given permission.
func CanPerformAction(node *core.Node, action Permission) bool {
	return node.Permissions[string(action)]
}

// Apply populates node.Permissions from the fixed role table, called once
// when a node is constructed.
func Apply(node *core.Node) {
	node.Permissions = make(map[string]bool)
	for _, p := range RoleTable[node.Role] {
		node.Permissions[string(p)] = true
	}
}

// Policy describes the admission rule for one redaction kind: which roles
// may request it, how many approvals it needs, and any metadata predicates
// a request must satisfy.
type Policy struct {
	PolicyID         string
	PolicyType       core.RedactionType
	Conditions       map[string]string
	AuthorizedRoles  map[core.Role]bool
	MinApprovals     int
	TimeLockSeconds  float64
}

// Registry holds the active set of redaction policies, keyed by the
// redaction kind they govern.
type Registry struct {
	policies map[core.RedactionType]Policy
}

// NewRegistry builds a Registry from a policy list, keyed by PolicyType.
// A later policy for the same type overwrites an earlier one.
func NewRegistry(policies []Policy) *Registry {
	r := &Registry{policies: make(map[core.RedactionType]Policy, len(policies))}
	for _, p := range policies {
		r.policies[p.PolicyType] = p
	}
	return r
}

// Admissible reports whether a request of the given type, raised by
// requester, with the given metadata, is admissible: a policy of that type
// must exist, the requester's role must be authorized, and every declared
// condition must match the metadata by key equality.
func (r *Registry) Admissible(typ core.RedactionType, requester *core.Node, metadata map[string]string) (bool, Policy) {
	pol, ok := r.policies[typ]
	if !ok {
		return false, Policy{}
	}
	if !pol.AuthorizedRoles[requester.Role] {
		return false, pol
	}
	for k, want := range pol.Conditions {
		if metadata[k] != want {
			return false, pol
		}
	}
	return true, pol
}

// RequiredApprovals returns the quorum size a request of this type needs,
// defaulting to 2 when no policy is registered for it.
func (r *Registry) RequiredApprovals(typ core.RedactionType) int {
	if pol, ok := r.policies[typ]; ok && pol.MinApprovals > 0 {
		return pol.MinApprovals
	}
	return 2
}
