// Command simulator runs a discrete-event simulation of a redactable,
// permissioned Nakamoto-style blockchain.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tolelom/redactchain/config"
	"github.com/tolelom/redactchain/simulator"
	"github.com/tolelom/redactchain/storage"
	"github.com/tolelom/redactchain/wallet"
)

func main() {
	cfgPath := flag.String("config", "", "path to a JSON config file (defaults to the built-in preset)")
	resultsDir := flag.String("results-dir", "Results", "directory to append time.csv/time_redact.csv/block_time.csv/profit_redactRuns.csv into (skipped if empty)")
	persistPath := flag.String("persist", "", "LevelDB directory to persist per-run chains and statistics into (skipped if empty)")
	keystoreDir := flag.String("keystore-dir", "", "directory to seal each run's admin chameleon trapdoor key into (skipped if empty)")
	keystorePass := flag.String("keystore-password", "", "password used to seal keystore-dir output")
	seed := flag.Int64("seed", 1, "PRNG seed for reproducible runs")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if envTruthy(os.Getenv("TESTING_MODE")) {
		testing := config.TestingConfig()
		testing.AdminNode = cfg.AdminNode
		cfg = testing
		log.Printf("config initialized from TESTING_MODE=%s (testing_mode=true)", os.Getenv("TESTING_MODE"))
	}

	if envTruthy(os.Getenv("DRY_RUN")) {
		printDryRunSummary(cfg)
		return
	}

	if *keystoreDir != "" {
		if err := os.MkdirAll(*keystoreDir, 0755); err != nil {
			log.Fatalf("mkdir keystore dir: %v", err)
		}
	}

	var chainStore *storage.ChainStore
	var runStore *storage.RunStore
	if *persistPath != "" {
		db, err := storage.NewLevelDB(*persistPath)
		if err != nil {
			log.Fatalf("open persist db: %v", err)
		}
		defer db.Close()
		chainStore = storage.NewChainStore(db)
		runStore = storage.NewRunStore(db)
	}

	for run := 0; run < cfg.Runs; run++ {
		t0 := time.Now()
		sim, err := simulator.New(cfg, *seed+int64(run))
		if err != nil {
			log.Fatalf("build simulator: %v", err)
		}
		result := sim.Run()
		elapsed := time.Since(t0)

		log.Printf("run %d/%d complete in %s: %d blocks (%d main, %d stale), %d redactions, %d contract calls",
			run+1, cfg.Runs, elapsed, result.TotalBlocks, result.MainBlocks, result.StaleBlocks,
			len(result.RedactionRows), result.ContractCallCount)
		result.PrintSummary()

		if *keystoreDir != "" {
			admin := sim.AdminNode()
			if admin == nil {
				log.Printf("run %d: no admin node to seal a keystore for", run)
			} else {
				ksPath := fmt.Sprintf("%s/run%d_admin.keystore", *keystoreDir, run)
				if err := wallet.SealSK(ksPath, *keystorePass, admin.ID, admin.ChameleonSK); err != nil {
					log.Printf("seal keystore %s: %v", ksPath, err)
				}
			}
		}

		if *resultsDir != "" {
			if err := result.WriteCSV(*resultsDir, run); err != nil {
				log.Printf("write results to %s: %v", *resultsDir, err)
			}
		}

		if chainStore != nil {
			if err := sim.PersistChains(chainStore); err != nil {
				log.Printf("persist chains: %v", err)
			}
			if err := runStore.Stage(run, result); err != nil {
				log.Printf("stage run %d statistics: %v", run, err)
			}
			log.Printf("run %d chain checksum: %s", run, storage.Checksum(result.BlockRows))
		}
	}

	if runStore != nil {
		if err := runStore.Commit(); err != nil {
			log.Fatalf("commit persisted runs: %v", err)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("config file not found at %s, using defaults", path)
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func envTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func printDryRunSummary(cfg *config.Config) {
	fmt.Println("DRY_RUN active: exiting before simulation")
	fmt.Printf(" testing_mode=%t\n", cfg.TestingMode)
	fmt.Printf(" num_nodes=%d, miners_portion=%s\n", cfg.NumNodes, strconv.FormatFloat(cfg.MinersPortion, 'f', -1, 64))
	fmt.Printf(" sim_time=%s, binterval=%s\n", strconv.FormatFloat(cfg.SimTime, 'f', -1, 64), strconv.FormatFloat(cfg.Binterval, 'f', -1, 64))
	fmt.Printf(" has_smart_contracts=%t, has_permissions=%t, has_redact=%t\n", cfg.HasSmartContracts, cfg.HasPermissions, cfg.HasRedact)
}
