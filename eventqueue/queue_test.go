package eventqueue

import "testing"

func TestPopOrdersByTime(t *testing.T) {
	q := New()
	q.Push(Event{Kind: CreateBlock, Time: 3})
	q.Push(Event{Kind: CreateBlock, Time: 1})
	q.Push(Event{Kind: CreateBlock, Time: 2})

	var got []float64
	for !q.IsEmpty() {
		ev, _ := q.PopMin()
		got = append(got, ev.Time)
	}
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestPopBreaksTiesFIFO(t *testing.T) {
	q := New()
	q.Push(Event{Kind: CreateBlock, Time: 5, Node: "a"})
	q.Push(Event{Kind: CreateBlock, Time: 5, Node: "b"})
	q.Push(Event{Kind: CreateBlock, Time: 5, Node: "c"})

	first, _ := q.PopMin()
	second, _ := q.PopMin()
	third, _ := q.PopMin()
	if first.Node != "a" || second.Node != "b" || third.Node != "c" {
		t.Fatalf("ties not broken FIFO: got %v, %v, %v", first.Node, second.Node, third.Node)
	}
}

func TestPopMinOnEmptyQueue(t *testing.T) {
	q := New()
	if _, ok := q.PopMin(); ok {
		t.Fatal("expected ok=false on empty queue")
	}
}
