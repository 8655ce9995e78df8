// Package config resolves the simulator's run parameters: block/transaction
// distributions, node/role composition, and the redaction policy table,
// with a TESTING_MODE preset for fast iteration. The DRY_RUN mode that
// prints the resolved configuration without simulating lives in
// cmd/simulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// RedactionPolicy mirrors one entry of the REDACTION_POLICIES table: the
// admission rule for one redaction kind.
type RedactionPolicy struct {
	PolicyID        string            `json:"policy_id"`
	PolicyType      string            `json:"policy_type"` // DELETE | MODIFY | ANONYMIZE
	Conditions      map[string]string `json:"conditions"`
	AuthorizedRoles []string          `json:"authorized_roles"`
	MinApprovals    int               `json:"min_approvals"`
	TimeLockSeconds float64           `json:"time_lock"`
}

// Config holds every resolved simulator parameter.
type Config struct {
	TestingMode bool `json:"testing_mode"`

	// Block parameters
	Binterval float64 `json:"binterval"`
	Bsize     float64 `json:"bsize"`
	Bdelay    float64 `json:"bdelay"`
	Breward   float64 `json:"breward"`
	Rreward   float64 `json:"rreward"`

	// Transaction parameters
	HasTrans   bool    `json:"has_trans"`
	Ttechnique string  `json:"ttechnique"` // "Light" | "Full"
	Tn         float64 `json:"tn"`
	Tfee       float64 `json:"tfee"`
	Tsize      float64 `json:"tsize"`
	Tdelay     float64 `json:"tdelay"`

	// Node parameters
	NumNodes      int     `json:"num_nodes"`
	MinersPortion float64 `json:"miners_portion"`
	MaxHashPower  int     `json:"max_hash_power"`

	// Simulation parameters
	SimTime    float64 `json:"sim_time"`
	RedactRuns int     `json:"redact_runs"`
	AdminNode  int     `json:"admin_node"`
	Runs       int     `json:"runs"`

	// Feature flags
	HasRedact         bool `json:"has_redact"`
	HasMulti          bool `json:"has_multi"`
	HasSmartContracts bool `json:"has_smart_contracts"`
	HasPermissions    bool `json:"has_permissions"`

	MinRedactionApprovals int               `json:"min_redaction_approvals"`
	DataRetentionPeriod   float64           `json:"data_retention_period"`
	VotePeriod            int               `json:"vote_period"`
	RHO                   float64           `json:"rho"`
	RedactionPolicies     []RedactionPolicy `json:"redaction_policies"`

	TransactionTypeDistribution map[string]float64 `json:"transaction_type_distribution"`
	PrivacyLevelDistribution    map[string]float64 `json:"privacy_level_distribution"`
}

// DefaultConfig returns the standard (non-testing) Bitcoin-model preset.
func DefaultConfig() *Config {
	return &Config{
		Binterval: 600,
		Bsize:     1.0,
		Bdelay:    0.42,
		Breward:   12.5,
		Rreward:   0.03,

		HasTrans:   true,
		Ttechnique: "Light",
		Tn:         5,
		Tfee:       0.001,
		Tsize:      0.0006,
		Tdelay:     5.1,

		NumNodes:      1000,
		MinersPortion: 0.3,
		MaxHashPower:  200,

		SimTime:    100000,
		RedactRuns: 1,
		AdminNode:  0,
		Runs:       1,

		HasRedact:         true,
		HasMulti:          true,
		HasSmartContracts: true,
		HasPermissions:    true,

		MinRedactionApprovals: 2,
		DataRetentionPeriod:   86400 * 365,
		VotePeriod:            6,
		RHO:                   0.6,
		RedactionPolicies:     productionPolicies(),

		TransactionTypeDistribution: map[string]float64{
			"TRANSFER":          0.80,
			"CONTRACT_CALL":     0.15,
			"CONTRACT_DEPLOY":   0.03,
			"REDACTION_REQUEST": 0.02,
		},
		PrivacyLevelDistribution: map[string]float64{
			"PUBLIC":       0.70,
			"PRIVATE":      0.25,
			"CONFIDENTIAL": 0.05,
		},
	}
}

// TestingConfig returns the fast-iteration preset: a small network, short
// simulated clock, and a richer redaction-policy table, selected when the
// TESTING_MODE environment variable is truthy.
func TestingConfig() *Config {
	cfg := DefaultConfig()
	cfg.TestingMode = true
	cfg.Binterval = 300
	cfg.Bsize = 2.0
	cfg.Rreward = 0.05
	cfg.Tn = 10
	cfg.Tfee = 0.002
	cfg.Tsize = 0.001
	cfg.NumNodes = 50
	cfg.MinersPortion = 0.4
	cfg.MaxHashPower = 100
	cfg.SimTime = 10000
	cfg.RedactRuns = 5
	cfg.AdminNode = 0
	cfg.DataRetentionPeriod = 86400 * 7
	cfg.RedactionPolicies = testingPolicies()
	cfg.TransactionTypeDistribution = map[string]float64{
		"TRANSFER":          0.60,
		"CONTRACT_CALL":     0.20,
		"CONTRACT_DEPLOY":   0.10,
		"REDACTION_REQUEST": 0.10,
	}
	cfg.PrivacyLevelDistribution = map[string]float64{
		"PUBLIC":       0.50,
		"PRIVATE":      0.30,
		"CONFIDENTIAL": 0.20,
	}
	return cfg
}

func productionPolicies() []RedactionPolicy {
	return []RedactionPolicy{
		{
			PolicyID:        "GDPR_COMPLIANCE",
			PolicyType:      "DELETE",
			Conditions:      map[string]string{"privacy_request": "true", "data_expired": "true"},
			AuthorizedRoles: []string{"ADMIN", "REGULATOR"},
			MinApprovals:    2,
			TimeLockSeconds: 86400,
		},
		{
			PolicyID:        "FINANCIAL_AUDIT",
			PolicyType:      "ANONYMIZE",
			Conditions:      map[string]string{"audit_required": "true"},
			AuthorizedRoles: []string{"ADMIN", "REGULATOR"},
			MinApprovals:    3,
			TimeLockSeconds: 86400 * 7,
		},
		{
			PolicyID:        "SECURITY_INCIDENT",
			PolicyType:      "MODIFY",
			Conditions:      map[string]string{"security_breach": "true"},
			AuthorizedRoles: []string{"ADMIN"},
			MinApprovals:    1,
			TimeLockSeconds: 0,
		},
	}
}

func testingPolicies() []RedactionPolicy {
	return []RedactionPolicy{
		{
			PolicyID:        "TEST_GDPR_COMPLIANCE",
			PolicyType:      "DELETE",
			Conditions:      map[string]string{"privacy_request": "true", "user_consent": "true"},
			AuthorizedRoles: []string{"ADMIN", "REGULATOR"},
			MinApprovals:    2,
			TimeLockSeconds: 300,
		},
		{
			PolicyID:        "TEST_AUDIT_REQUIREMENT",
			PolicyType:      "ANONYMIZE",
			Conditions:      map[string]string{"audit_required": "true"},
			AuthorizedRoles: []string{"ADMIN", "REGULATOR"},
			MinApprovals:    2,
			TimeLockSeconds: 600,
		},
		{
			PolicyID:        "TEST_SECURITY_INCIDENT",
			PolicyType:      "MODIFY",
			Conditions:      map[string]string{"security_breach": "true", "emergency": "true"},
			AuthorizedRoles: []string{"ADMIN"},
			MinApprovals:    1,
			TimeLockSeconds: 0,
		},
		{
			PolicyID:        "TEST_DATA_CORRECTION",
			PolicyType:      "MODIFY",
			Conditions:      map[string]string{"data_error": "true"},
			AuthorizedRoles: []string{"ADMIN", "REGULATOR", "USER"},
			MinApprovals:    3,
			TimeLockSeconds: 1800,
		},
	}
}

// Load reads a JSON config file from path, applied over the default preset,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that every field required to run a simulation is present
// and well-formed.
func (c *Config) Validate() error {
	if c.Ttechnique != "Light" && c.Ttechnique != "Full" {
		return fmt.Errorf("ttechnique must be Light or Full, got %q", c.Ttechnique)
	}
	if c.NumNodes <= 0 {
		return fmt.Errorf("num_nodes must be positive, got %d", c.NumNodes)
	}
	if c.MinersPortion <= 0 || c.MinersPortion > 1 {
		return fmt.Errorf("miners_portion must be in (0,1], got %f", c.MinersPortion)
	}
	if c.AdminNode < 0 || c.AdminNode >= c.NumNodes {
		return fmt.Errorf("admin_node %d out of range for %d nodes", c.AdminNode, c.NumNodes)
	}
	if c.SimTime <= 0 {
		return fmt.Errorf("sim_time must be positive, got %f", c.SimTime)
	}
	if c.Binterval <= 0 {
		return fmt.Errorf("binterval must be positive, got %f", c.Binterval)
	}
	if c.MinRedactionApprovals <= 0 {
		return fmt.Errorf("min_redaction_approvals must be positive, got %d", c.MinRedactionApprovals)
	}
	return nil
}

// Save writes cfg to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
