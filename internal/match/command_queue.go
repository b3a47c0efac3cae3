package match

import (
	"sync"

	"lanebattle/internal/combat"
)

type CommandKind int

const (
	CmdDeploy CommandKind = iota
	CmdRemove
	CmdReady
	CmdRetreat
	CmdStartBattle
)

func (k CommandKind) String() string {
	switch k {
	case CmdDeploy:
		return "deploy"
	case CmdRemove:
		return "remove"
	case CmdReady:
		return "ready"
	case CmdRetreat:
		return "retreat"
	case CmdStartBattle:
		return "start_battle"
	}
	return "unknown"
}

// Command is an external input staged for the next tick. Reply, when set,
// must be buffered; the controller never blocks on it.
type Command struct {
	Kind  CommandKind
	Team  combat.Team
	Lane  combat.LaneID
	Slot  int
	Def   string
	Ready bool
	Reply chan<- Reply
}

type Reply struct {
	Unit    combat.UnitID
	Def     string
	Removed bool
	Err     error
}

// CommandQueue stores staged commands in a fixed-size ring. It is safe for
// concurrent producers and a single consumer.
type CommandQueue struct {
	mu    sync.Mutex
	data  []Command
	head  int
	tail  int
	count int
}

func NewCommandQueue(capacity int) *CommandQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &CommandQueue{data: make([]Command, capacity)}
}

func (q *CommandQueue) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Push stages a command, returning false if the queue is full.
func (q *CommandQueue) Push(cmd Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.data) {
		return false
	}
	q.data[q.tail] = cmd
	q.tail = (q.tail + 1) % len(q.data)
	q.count++
	return true
}

// Drain returns all staged commands in FIFO order and clears the queue.
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	out := make([]Command, q.count)
	for i := 0; i < q.count; i++ {
		idx := (q.head + i) % len(q.data)
		out[i] = q.data[idx]
		q.data[idx] = Command{}
	}
	q.head, q.tail, q.count = 0, 0, 0
	return out
}

func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
