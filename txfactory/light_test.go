package txfactory

import (
	"math/rand"
	"testing"

	"github.com/tolelom/redactchain/core"
)

func testParams() Params {
	return Params{
		TxFeeMean:           1,
		TxSizeMean:          1,
		TypeDistribution:    []TypeWeight{{Type: core.TxTransfer, Weight: 1}},
		PrivacyDistribution: []PrivacyWeight{{Level: core.PrivacyPublic, Weight: 1}},
	}
}

func TestLightFactoryExecuteTransactionsRespectsBlockSize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	f := NewLightFactory(testParams(), rng)
	f.CreateTransactions([]int{0, 1, 2}, 50, 1, 0)

	miner := &core.Node{ID: 0}
	selected, size := f.ExecuteTransactions(miner, 0, 2)

	var want float64
	for _, tx := range selected {
		want += tx.Size
	}
	if size != want {
		t.Fatalf("returned size %f does not match sum of selected transaction sizes %f", size, want)
	}
	if size > 2.000001 {
		t.Fatalf("selected transactions exceed the requested block size: %f > 2", size)
	}
}

func TestLightFactoryRegeneratesPoolEachCall(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	f := NewLightFactory(testParams(), rng)

	f.CreateTransactions([]int{0}, 10, 1, 0)
	firstLen := len(f.pending)
	f.CreateTransactions([]int{0}, 10, 1, 1)
	secondLen := len(f.pending)

	if firstLen != secondLen {
		t.Fatalf("pool size should be deterministic in count (tn*binterval): got %d then %d", firstLen, secondLen)
	}
}

func TestSampleTypeRespectsWeightOfZero(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dist := []TypeWeight{
		{Type: core.TxTransfer, Weight: 0},
		{Type: core.TxContractCall, Weight: 1},
	}
	for i := 0; i < 100; i++ {
		if got := sampleType(rng, dist); got != core.TxContractCall {
			t.Fatalf("a zero-weight type should never be sampled, got %s", got)
		}
	}
}

func TestRedactionRequestTransactionsAreNeverRedactable(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	params := Params{
		TxFeeMean:           1,
		TxSizeMean:          1,
		TypeDistribution:    []TypeWeight{{Type: core.TxRedactionRequest, Weight: 1}},
		PrivacyDistribution: []PrivacyWeight{{Level: core.PrivacyPublic, Weight: 1}},
	}
	var idSeq int
	tx := newTransaction(rng, params, []int{0, 1}, &idSeq, 0)
	if tx.IsRedactable {
		t.Fatal("a REDACTION_REQUEST transaction must never itself be redactable")
	}
	if tx.RedactionMeta == nil {
		t.Fatal("a REDACTION_REQUEST transaction must carry RedactionMeta")
	}
}
