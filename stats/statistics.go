// Package stats accumulates per-run simulation results and renders them as
// the spec's Results/ append-only CSV logs and a terminal summary table.
package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/tolelom/redactchain/core"
)

// BlockRow is one [depth, id, previous, timestamp, miner, #tx, size] line
// of the per-block report.
type BlockRow struct {
	Depth        int
	ID           string
	Previous     string
	Timestamp    float64
	Miner        int
	NumTx        int
	Size         float64
}

// ContractCallRow is one row of the smart-contract-call report.
type ContractCallRow struct {
	BlockDepth      int
	ContractAddress string
	FunctionName    string
	GasUsed         uint64
	Success         bool
}

// RedactionRow is one [miner_id, depth, tx_id, reward, elapsed_ms,
// chain_length, tx_count] line of the redaction report.
type RedactionRow struct {
	MinerID     int
	Depth       int
	TxID        string
	Reward      float64
	ElapsedMS   float64
	ChainLength int
	TxCount     int
	Type        core.RedactionType
}

// Statistics accumulates everything Statistics.calculate() reports on in
// the source simulator: chain-level, contract-level and redaction-level
// counters, plus the raw rows each gets rendered from.
type Statistics struct {
	TotalBlocks int
	MainBlocks  int
	StaleBlocks int

	BlockRows        []BlockRow
	ContractCalls    []ContractCallRow
	RedactionRows    []RedactionRow
	RedactionsByType map[core.RedactionType]int
	RedactionsByRole map[core.Role]int

	ContractCallCount       int
	ContractDeploymentCount int
	RedactionApprovals      int
	RedactionRejections     int
}

// New returns a zeroed Statistics ready for one run.
func New() *Statistics {
	return &Statistics{
		RedactionsByType: make(map[core.RedactionType]int),
		RedactionsByRole: make(map[core.Role]int),
	}
}

// StaleRate returns the fraction of mined blocks that did not make the
// canonical chain.
func (s *Statistics) StaleRate() float64 {
	if s.TotalBlocks == 0 {
		return 0
	}
	return float64(s.StaleBlocks) / float64(s.TotalBlocks)
}

// AverageRedactionTime returns the mean elapsed_ms across all redaction
// rows, or 0 if none were recorded.
func (s *Statistics) AverageRedactionTime() float64 {
	if len(s.RedactionRows) == 0 {
		return 0
	}
	var total float64
	for _, r := range s.RedactionRows {
		total += r.ElapsedMS
	}
	return total / float64(len(s.RedactionRows))
}

// RecordRedaction appends a redaction record to the accumulator, keeping
// the per-type and per-role counters in sync.
func (s *Statistics) RecordRedaction(rec core.RedactedTxRecord, minerID int, role core.Role) {
	s.RedactionRows = append(s.RedactionRows, RedactionRow{
		MinerID:     minerID,
		Depth:       rec.BlockDepth,
		TxID:        rec.TxID,
		Reward:      rec.Reward,
		ElapsedMS:   rec.ElapsedMS,
		ChainLength: rec.ChainLen,
		TxCount:     rec.TxCount,
		Type:        rec.Type,
	})
	s.RedactionsByType[rec.Type]++
	s.RedactionsByRole[role]++
}

// reset zeros everything accumulated during one run.
func (s *Statistics) reset() {
	*s = *New()
}

// Reset2 is the exported form of reset: it zeros every field. Statistics
// holds no totals that span runs; a driver that runs `Runs` repetitions
// keeps those at the call site.
func (s *Statistics) Reset2() {
	s.reset()
}

// WriteCSV appends this run's results to the four append-only logs under
// dir, creating dir and any file that doesn't exist yet (with its header
// row) on first use: block_time.csv mirrors the Chain sheet, time.csv the
// SimOutput sheet, time_redact.csv and profit_redactRuns.csv the
// elapsed-time and reward columns of the RedactResult sheet. run is the
// 0-based run index, prepended to every row so a multi-run batch's logs
// stay distinguishable once appended together.
func (s *Statistics) WriteCSV(dir string, run int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("stats: create %s: %w", dir, err)
	}

	if err := appendCSV(filepath.Join(dir, "block_time.csv"),
		[]string{"run", "depth", "id", "previous", "timestamp", "miner", "num_tx", "size"},
		s.blockTimeRecords(run)); err != nil {
		return err
	}
	if err := appendCSV(filepath.Join(dir, "time.csv"),
		[]string{"run", "total_blocks", "main_blocks", "stale_blocks", "stale_rate", "avg_redaction_ms",
			"contract_calls", "contract_deployments", "redaction_approvals", "redaction_rejections"},
		[][]string{s.timeRecord(run)}); err != nil {
		return err
	}
	if err := appendCSV(filepath.Join(dir, "time_redact.csv"),
		[]string{"run", "miner_id", "depth", "tx_id", "elapsed_ms", "chain_length", "tx_count", "type"},
		s.timeRedactRecords(run)); err != nil {
		return err
	}
	if err := appendCSV(filepath.Join(dir, "profit_redactRuns.csv"),
		[]string{"run", "miner_id", "depth", "tx_id", "reward", "type"},
		s.profitRedactRunsRecords(run)); err != nil {
		return err
	}
	return nil
}

func (s *Statistics) blockTimeRecords(run int) [][]string {
	records := make([][]string, 0, len(s.BlockRows))
	for _, row := range s.BlockRows {
		records = append(records, []string{
			strconv.Itoa(run),
			strconv.Itoa(row.Depth),
			row.ID,
			row.Previous,
			strconv.FormatFloat(row.Timestamp, 'f', -1, 64),
			strconv.Itoa(row.Miner),
			strconv.Itoa(row.NumTx),
			strconv.FormatFloat(row.Size, 'f', -1, 64),
		})
	}
	return records
}

func (s *Statistics) timeRecord(run int) []string {
	return []string{
		strconv.Itoa(run),
		strconv.Itoa(s.TotalBlocks),
		strconv.Itoa(s.MainBlocks),
		strconv.Itoa(s.StaleBlocks),
		strconv.FormatFloat(s.StaleRate(), 'f', -1, 64),
		strconv.FormatFloat(s.AverageRedactionTime(), 'f', -1, 64),
		strconv.Itoa(s.ContractCallCount),
		strconv.Itoa(s.ContractDeploymentCount),
		strconv.Itoa(s.RedactionApprovals),
		strconv.Itoa(s.RedactionRejections),
	}
}

func (s *Statistics) timeRedactRecords(run int) [][]string {
	records := make([][]string, 0, len(s.RedactionRows))
	for _, row := range s.RedactionRows {
		records = append(records, []string{
			strconv.Itoa(run),
			strconv.Itoa(row.MinerID),
			strconv.Itoa(row.Depth),
			row.TxID,
			strconv.FormatFloat(row.ElapsedMS, 'f', -1, 64),
			strconv.Itoa(row.ChainLength),
			strconv.Itoa(row.TxCount),
			string(row.Type),
		})
	}
	return records
}

func (s *Statistics) profitRedactRunsRecords(run int) [][]string {
	records := make([][]string, 0, len(s.RedactionRows))
	for _, row := range s.RedactionRows {
		records = append(records, []string{
			strconv.Itoa(run),
			strconv.Itoa(row.MinerID),
			strconv.Itoa(row.Depth),
			row.TxID,
			strconv.FormatFloat(row.Reward, 'f', -1, 64),
			string(row.Type),
		})
	}
	return records
}

// appendCSV appends records to path, writing header only if path doesn't
// exist yet — the "append-only log" behavior spec.md §6 calls for across a
// multi-run batch.
func appendCSV(path string, header []string, records [][]string) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("stats: open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if isNew {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}

// PrintSummary renders the headline run statistics as a terminal table.
func (s *Statistics) PrintSummary() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Total blocks", fmt.Sprint(s.TotalBlocks)})
	table.Append([]string{"Main-chain blocks", fmt.Sprint(s.MainBlocks)})
	table.Append([]string{"Stale blocks", fmt.Sprint(s.StaleBlocks)})
	table.Append([]string{"Stale rate", fmt.Sprintf("%.4f", s.StaleRate())})
	table.Append([]string{"Contract calls", fmt.Sprint(s.ContractCallCount)})
	table.Append([]string{"Contract deployments", fmt.Sprint(s.ContractDeploymentCount)})
	table.Append([]string{"Redactions executed", fmt.Sprint(len(s.RedactionRows))})
	table.Append([]string{"Redaction approvals", fmt.Sprint(s.RedactionApprovals)})
	table.Append([]string{"Redaction rejections", fmt.Sprint(s.RedactionRejections)})
	table.Append([]string{"Avg redaction time (ms)", fmt.Sprintf("%.3f", s.AverageRedactionTime())})
	table.Render()
}
