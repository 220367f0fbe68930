// Package store holds the local contact collection and keeps it consistent
// with the remote authority.
//
// Every change is the terminal step of a confirmed remote call: nothing is
// inserted, edited, or removed optimistically. Each operation takes a ticket
// when it is issued. A response for contact X is applied only if its ticket
// is newer than the last one applied for X, so an older response that
// arrives late can never overwrite a newer one. A Load that arrives after an
// even newer Load is discarded; otherwise it replaces the collection but
// keeps entries touched by mutations issued after it.
package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/logging"
)

// Gateway is the subset of the remote API the store needs.
type Gateway interface {
	List(ctx context.Context, filters *models.ListFilters) ([]models.Contact, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	Create(ctx context.Context, payload models.ContactPayload) (*models.Contact, error)
	Update(ctx context.Context, id string, payload models.ContactPayload) (*models.Contact, error)
	Delete(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (*models.Contact, error)
}

// Store is safe for concurrent use.
type Store struct {
	gw  Gateway
	log logging.Logger

	tickets atomic.Uint64

	mu         sync.RWMutex
	order      []string
	byID       map[string]models.Contact
	applied    map[string]uint64 // last applied ticket per id, kept after delete
	floor      uint64            // responses to tickets below this are dropped
	loadTicket uint64
	loaded     bool
	version    uint64
	pending    map[string]int

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

func New(gw Gateway, log logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		gw:      gw,
		log:     log,
		byID:    map[string]models.Contact{},
		applied: map[string]uint64{},
		pending: map[string]int{},
		subs:    map[int]chan Event{},
	}
}

func (s *Store) begin(op Op, id string) uint64 {
	t := s.tickets.Add(1)

	s.mu.Lock()
	s.pending[id]++
	v := s.version
	s.mu.Unlock()

	s.publish(Event{Op: op, ID: id, Outcome: pending(), Version: v})
	return t
}

// finish must be called with s.mu held.
func (s *Store) finish(id string) {
	if s.pending[id]--; s.pending[id] <= 0 {
		delete(s.pending, id)
	}
}

// settle releases the lock taken by the caller, then notifies subscribers.
func (s *Store) settle(op Op, id string, out Outcome) Outcome {
	s.finish(id)
	v := s.version
	s.mu.Unlock()

	s.publish(Event{Op: op, ID: id, Outcome: out, Version: v})
	return out
}

func (s *Store) indexOf(id string) int {
	for i, x := range s.order {
		if x == id {
			return i
		}
	}
	return -1
}

// isStale reports whether a response with ticket t for id must be dropped.
func (s *Store) isStale(id string, t uint64) bool {
	return t < s.floor || s.applied[id] > t
}

// Load fetches the whole collection from the authority.
func (s *Store) Load(ctx context.Context) error {
	t := s.begin(OpLoad, "")
	list, err := s.gw.List(ctx, nil)

	s.mu.Lock()
	if err != nil {
		s.settle(OpLoad, "", failed(err))
		return fmt.Errorf("load contacts: %w", err)
	}
	if t < s.floor || s.loadTicket > t {
		s.log.Debug(ctx, "discarding superseded load", "ticket", t, "newer", s.loadTicket)
		s.settle(OpLoad, "", superseded())
		return nil
	}

	order := make([]string, 0, len(list))
	byID := make(map[string]models.Contact, len(list))
	inList := make(map[string]struct{}, len(list))
	for _, c := range list {
		inList[c.Id] = struct{}{}
	}

	// entries created after this load was issued stay at the front
	for _, id := range s.order {
		if _, ok := inList[id]; !ok && s.isStale(id, t) {
			order = append(order, id)
			byID[id] = s.byID[id]
		}
	}
	for _, c := range list {
		if _, dup := byID[c.Id]; dup {
			continue
		}
		if s.isStale(c.Id, t) {
			// newer local state wins; absent locally means deleted since
			if local, ok := s.byID[c.Id]; ok {
				order = append(order, c.Id)
				byID[c.Id] = local
			}
			continue
		}
		order = append(order, c.Id)
		byID[c.Id] = c.Clone()
		s.applied[c.Id] = t
	}
	for _, id := range s.order {
		if _, ok := inList[id]; !ok && !s.isStale(id, t) {
			s.applied[id] = t
		}
	}

	s.order, s.byID = order, byID
	s.loadTicket, s.loaded = t, true
	s.version++
	s.settle(OpLoad, "", Outcome{State: StateApplied})
	return nil
}

// Add creates a contact and inserts the authority's record at the front.
func (s *Store) Add(ctx context.Context, p models.ContactPayload) (Outcome, error) {
	t := s.begin(OpAdd, "")
	created, err := s.gw.Create(ctx, p)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("add contact: %w", err)
		return s.settle(OpAdd, "", failed(err)), err
	}
	if s.isStale(created.Id, t) {
		s.log.Debug(ctx, "discarding superseded add", "id", created.Id, "ticket", t)
		return s.settle(OpAdd, "", superseded()), nil
	}

	if _, ok := s.byID[created.Id]; !ok {
		s.order = append([]string{created.Id}, s.order...)
	}
	s.byID[created.Id] = created.Clone()
	s.applied[created.Id] = t
	s.version++
	return s.settle(OpAdd, "", applied(*created)), nil
}

// replace applies an authority record for an existing entry in place.
// Must be called with s.mu held.
func (s *Store) replace(ctx context.Context, op Op, c models.Contact, t uint64) Outcome {
	if s.isStale(c.Id, t) {
		s.log.Debug(ctx, "discarding superseded response", "op", string(op), "id", c.Id, "ticket", t)
		return superseded()
	}
	if _, ok := s.byID[c.Id]; ok {
		s.byID[c.Id] = c.Clone()
		s.applied[c.Id] = t
		s.version++
	}
	return applied(c)
}

func (s *Store) mutate(ctx context.Context, op Op, id string, call func() (*models.Contact, error)) (Outcome, error) {
	t := s.begin(op, id)
	c, err := call()

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("%s contact %s: %w", op, id, err)
		return s.settle(op, id, failed(err)), err
	}
	return s.settle(op, id, s.replace(ctx, op, *c, t)), nil
}

// Edit updates a contact, keeping its position in the collection.
func (s *Store) Edit(ctx context.Context, id string, p models.ContactPayload) (Outcome, error) {
	return s.mutate(ctx, OpEdit, id, func() (*models.Contact, error) { return s.gw.Update(ctx, id, p) })
}

// ToggleFavorite flips the favorite flag on the authority and applies the
// returned record.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (Outcome, error) {
	return s.mutate(ctx, OpFavorite, id, func() (*models.Contact, error) { return s.gw.ToggleFavorite(ctx, id) })
}

// Fetch refreshes one contact from the authority. Outcome.Contact holds the
// record even when it is not part of the loaded collection.
func (s *Store) Fetch(ctx context.Context, id string) (Outcome, error) {
	return s.mutate(ctx, OpFetch, id, func() (*models.Contact, error) { return s.gw.Get(ctx, id) })
}

// Remove deletes a contact. It leaves the collection only once the
// authority confirms.
func (s *Store) Remove(ctx context.Context, id string) (Outcome, error) {
	t := s.begin(OpRemove, id)
	err := s.gw.Delete(ctx, id)

	s.mu.Lock()
	if err != nil {
		err = fmt.Errorf("remove contact %s: %w", id, err)
		return s.settle(OpRemove, id, failed(err)), err
	}
	if s.isStale(id, t) {
		s.log.Debug(ctx, "discarding superseded remove", "id", id, "ticket", t)
		return s.settle(OpRemove, id, superseded()), nil
	}

	prev, ok := s.byID[id]
	if i := s.indexOf(id); i >= 0 {
		s.order = append(s.order[:i:i], s.order[i+1:]...)
		delete(s.byID, id)
		s.version++
	}
	s.applied[id] = t
	out := Outcome{State: StateApplied}
	if ok {
		out.Contact = prev
	}
	return s.settle(OpRemove, id, out), nil
}

// Snapshot returns a copy of the collection in display order.
func (s *Store) Snapshot() []models.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Contact, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id].Clone()
	}
	return out
}

func (s *Store) Get(id string) (models.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return models.Contact{}, false
	}
	return c.Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Version increases every time the collection changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Loaded reports whether a Load has been applied since the last Reset.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Pending reports whether an operation for id is in flight. Pending("")
// covers Load and Add, which have no id when issued.
func (s *Store) Pending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[id] > 0
}

// Reset empties the collection, for example after logout. Responses to
// calls issued before Reset are discarded.
func (s *Store) Reset() {
	t := s.tickets.Add(1)

	s.mu.Lock()
	s.order = nil
	s.byID = map[string]models.Contact{}
	s.applied = map[string]uint64{}
	s.floor, s.loaded = t, false
	s.version++
	v := s.version
	s.mu.Unlock()

	s.publish(Event{Op: OpLoad, Outcome: Outcome{State: StateApplied}, Version: v})
}
