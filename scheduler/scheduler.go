// Package scheduler posts the two event kinds the simulator drives onto the
// event queue: a miner's own next block attempt, and a block arriving at a
// peer after a propagation delay.
package scheduler

import (
	"github.com/tolelom/redactchain/core"
	"github.com/tolelom/redactchain/eventqueue"
)

// CreateBlockEvent constructs a new empty block owned by node and enqueues
// a create_block event for it at the given time.
func CreateBlockEvent(q *eventqueue.Queue, node *core.Node, time float64) {
	block := core.NewBlock(len(node.Blockchain), node.ID, node.LastBlock().ID, time)
	q.Push(eventqueue.Event{
		Kind:  eventqueue.CreateBlock,
		Time:  time,
		Block: block,
		Node:  node,
	})
}

// ReceiveBlockEvent posts a receive_block event for recipient, to be
// processed delay seconds after now.
func ReceiveBlockEvent(q *eventqueue.Queue, recipient *core.Node, block *core.Block, now, delay float64) {
	q.Push(eventqueue.Event{
		Kind:  eventqueue.ReceiveBlock,
		Time:  now + delay,
		Block: block,
		Node:  recipient,
	})
}
