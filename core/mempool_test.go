package core

import "testing"

func TestTxPoolSelectPrefersHighestFeeWithinSizeBudget(t *testing.T) {
	p := NewTxPool()
	p.Add(&Transaction{ID: "low", Fee: 1, Size: 1})
	p.Add(&Transaction{ID: "high", Fee: 10, Size: 1})
	p.Add(&Transaction{ID: "mid", Fee: 5, Size: 1})

	selected := p.Select(0, 2)
	if len(selected) != 2 {
		t.Fatalf("expected 2 transactions to fit a size-2 budget, got %d", len(selected))
	}
	if selected[0].ID != "high" || selected[1].ID != "mid" {
		t.Fatalf("expected [high mid] in fee order, got %v", []string{selected[0].ID, selected[1].ID})
	}
}

func TestTxPoolSelectExcludesNotYetReceived(t *testing.T) {
	p := NewTxPool()
	p.Add(&Transaction{ID: "future", Fee: 100, Size: 1, ReceivedAt: 50})
	p.Add(&Transaction{ID: "present", Fee: 1, Size: 1, ReceivedAt: 10})

	selected := p.Select(20, 10)
	if len(selected) != 1 || selected[0].ID != "present" {
		t.Fatalf("expected only the already-received transaction to be selectable, got %v", selected)
	}
}

func TestTxPoolSelectIsDeterministicOnFeeTies(t *testing.T) {
	p := NewTxPool()
	p.Add(&Transaction{ID: "b", Fee: 5, Size: 1})
	p.Add(&Transaction{ID: "a", Fee: 5, Size: 1})

	selected := p.Select(0, 10)
	if selected[0].ID != "a" {
		t.Fatalf("equal-fee transactions must tiebreak by ID, got order %v", []string{selected[0].ID, selected[1].ID})
	}
}

func TestTxPoolRemove(t *testing.T) {
	p := NewTxPool()
	p.Add(&Transaction{ID: "x"})
	p.Remove([]string{"x"})
	if p.Size() != 0 {
		t.Fatalf("expected pool to be empty after Remove, got size %d", p.Size())
	}
}
