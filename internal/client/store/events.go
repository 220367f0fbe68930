package store

// Op names the store operation an Event belongs to.
type Op string

const (
	OpLoad     Op = "load"
	OpAdd      Op = "add"
	OpEdit     Op = "edit"
	OpRemove   Op = "remove"
	OpFavorite Op = "favorite"
	OpFetch    Op = "fetch"
)

// Event is published when an operation starts and when it settles.
// Version is the collection version after the event.
type Event struct {
	Op      Op
	ID      string
	Outcome Outcome
	Version uint64
}

const subscriberBuffer = 32

// Subscribe returns a channel of store events and a function that stops
// delivery and closes the channel. Slow subscribers miss events rather than
// block the store.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once bool
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if once {
			return
		}
		once = true
		delete(s.subs, id)
		close(ch)
	}
	return ch, cancel
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
