package config

import (
	"math/rand"
)

// RoleAssignment is the resolved role and hash-power roster for one node
// position, matching the original Bitcoin-model role-assignment algorithm:
// a fixed quota of ADMIN then REGULATOR nodes, remaining hash-power nodes
// become MINER, and the rest are split between USER and OBSERVER.
type RoleAssignment struct {
	HashPower float64
	Role      string // ADMIN | REGULATOR | MINER | USER | OBSERVER
}

// AssignRoles builds the NUM_NODES-length roster of (hashPower, role)
// pairs. rng drives both the miner hash-power draws and the USER/OBSERVER
// coin flip for leftover nodes, so a seeded rng reproduces an identical
// roster across runs.
func (c *Config) AssignRoles(rng *rand.Rand) []RoleAssignment {
	numMiners := int(float64(c.NumNodes) * c.MinersPortion)
	minHashPower := 1
	if c.TestingMode {
		minHashPower = 50
	}

	hashPower := make([]float64, c.NumNodes)
	for i := 0; i < numMiners; i++ {
		hashPower[i] = float64(minHashPower + rng.Intn(c.MaxHashPower-minHashPower+1))
	}

	numAdmins := max(1, c.NumNodes/100)
	numRegulators := max(1, c.NumNodes/50)
	if c.TestingMode {
		numAdmins = max(1, c.NumNodes/10)
		numRegulators = max(1, c.NumNodes/10)
	}

	roster := make([]RoleAssignment, c.NumNodes)
	admins, regulators := 0, 0
	for i := 0; i < c.NumNodes; i++ {
		roster[i].HashPower = hashPower[i]
		switch {
		case admins < numAdmins:
			roster[i].Role = "ADMIN"
			admins++
		case regulators < numRegulators:
			roster[i].Role = "REGULATOR"
			regulators++
		case hashPower[i] > 0:
			roster[i].Role = "MINER"
		default:
			if rng.Intn(2) == 0 {
				roster[i].Role = "USER"
			} else {
				roster[i].Role = "OBSERVER"
			}
		}
	}
	return roster
}
