package model

import "sync"

type EventKind uint8

const (
	EventMove EventKind = iota
	EventGameOver
)

// GameOver describes how a session ended.
type GameOver struct {
	Winner Side   `json:"winner"`
	Reason string `json:"reason"`
}

// Event is one broadcast from a session. Move events carry the accepted
// entry and the board after it; the final event carries Over.
type Event struct {
	Kind  EventKind
	Turn  int
	Entry HistoryMove
	Board Board
	Over  *GameOver
}

// broadcaster fans events out to subscribers. A subscriber that falls
// behind loses its oldest pending event.
type broadcaster struct {
	mu     sync.Mutex
	depth  int
	nextID uint64
	subs   map[uint64]chan Event
	closed bool
}

func newBroadcaster(depth int) *broadcaster {
	if depth < 1 {
		depth = 1
	}
	return &broadcaster{
		depth: depth,
		subs:  make(map[uint64]chan Event),
	}
}

func (b *broadcaster) subscribe() (uint64, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.depth)
	if b.closed {
		close(ch)
		return 0, ch
	}
	b.nextID++
	b.subs[b.nextID] = ch
	return b.nextID, ch
}

func (b *broadcaster) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish never blocks. Only publish sends, so after dropping the oldest
// event the retry has room.
func (b *broadcaster) publish(ev Event) (dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
			dropped++
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
	return dropped
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broadcaster) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
