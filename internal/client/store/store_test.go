package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeGateway answers from function fields; unset ones fail the test loudly.
type fakeGateway struct {
	list     func(ctx context.Context) ([]models.Contact, error)
	get      func(ctx context.Context, id string) (*models.Contact, error)
	create   func(ctx context.Context, p models.ContactPayload) (*models.Contact, error)
	update   func(ctx context.Context, id string, p models.ContactPayload) (*models.Contact, error)
	delete   func(ctx context.Context, id string) error
	favorite func(ctx context.Context, id string) (*models.Contact, error)
}

var errNotStubbed = errors.New("not stubbed")

func (f *fakeGateway) List(ctx context.Context, _ *models.ListFilters) ([]models.Contact, error) {
	if f.list == nil {
		return nil, errNotStubbed
	}
	return f.list(ctx)
}

func (f *fakeGateway) Get(ctx context.Context, id string) (*models.Contact, error) {
	if f.get == nil {
		return nil, errNotStubbed
	}
	return f.get(ctx, id)
}

func (f *fakeGateway) Create(ctx context.Context, p models.ContactPayload) (*models.Contact, error) {
	if f.create == nil {
		return nil, errNotStubbed
	}
	return f.create(ctx, p)
}

func (f *fakeGateway) Update(ctx context.Context, id string, p models.ContactPayload) (*models.Contact, error) {
	if f.update == nil {
		return nil, errNotStubbed
	}
	return f.update(ctx, id, p)
}

func (f *fakeGateway) Delete(ctx context.Context, id string) error {
	if f.delete == nil {
		return errNotStubbed
	}
	return f.delete(ctx, id)
}

func (f *fakeGateway) ToggleFavorite(ctx context.Context, id string) (*models.Contact, error) {
	if f.favorite == nil {
		return nil, errNotStubbed
	}
	return f.favorite(ctx, id)
}

// gate holds a fake call open until released.
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait() {
	close(g.started)
	<-g.release
}

func contact(id, name string) models.Contact {
	return models.Contact{Id: id, Name: name, Phone: "1", Email: id + "@x", Tags: []string{}}
}

func ids(cs []models.Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Id
	}
	return out
}

func loaded(t *testing.T, gw *fakeGateway, initial ...models.Contact) *Store {
	t.Helper()
	gw.list = func(context.Context) ([]models.Contact, error) { return initial, nil }
	s := New(gw, nil)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoad_ReplacesCollection(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"), contact("b", "Bo"))

	assert.True(t, s.Loaded())
	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot()))
	assert.Equal(t, 2, s.Len())
	v := s.Version()

	gw.list = func(context.Context) ([]models.Contact, error) { return []models.Contact{contact("c", "Cy")}, nil }
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"c"}, ids(s.Snapshot()))
	assert.Greater(t, s.Version(), v)

	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestLoad_FailureLeavesCollection(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))
	v := s.Version()

	gw.list = func(context.Context) ([]models.Contact, error) {
		return nil, fmt.Errorf("list: %w", common.ErrNetwork)
	}
	err := s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrNetwork)
	assert.Contains(t, err.Error(), "load contacts")
	assert.Equal(t, []string{"a"}, ids(s.Snapshot()))
	assert.Equal(t, v, s.Version())
}

func TestAdd_InsertsServerRecordAtFront(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"), contact("b", "Bo"))

	gw.create = func(_ context.Context, p models.ContactPayload) (*models.Contact, error) {
		c := models.Contact{Id: "srv-1", Name: p.Name, Phone: p.Phone, Email: p.Email, Tags: p.Tags}
		return &c, nil
	}
	out, err := s.Add(context.Background(), models.ContactPayload{Name: "Cy", Phone: "3", Email: "c@x", Tags: []string{}})
	require.NoError(t, err)
	assert.Equal(t, StateApplied, out.State)
	assert.Equal(t, "srv-1", out.Contact.Id)

	snap := s.Snapshot()
	assert.Equal(t, []string{"srv-1", "a", "b"}, ids(snap))
	assert.Equal(t, "Cy", snap[0].Name)
}

func TestAdd_FailureLeavesCollection(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))
	before := s.Snapshot()
	v := s.Version()

	gw.create = func(context.Context, models.ContactPayload) (*models.Contact, error) {
		return nil, fmt.Errorf("create: %w", common.ErrInvalid)
	}
	out, err := s.Add(context.Background(), models.ContactPayload{Name: "x"})
	require.ErrorIs(t, err, common.ErrInvalid)
	assert.Equal(t, StateFailed, out.State)
	assert.ErrorIs(t, out.Err, common.ErrInvalid)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, v, s.Version())
}

func TestEdit_ReplacesInPlace(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"), contact("b", "Bo"), contact("c", "Cy"))

	gw.update = func(_ context.Context, id string, p models.ContactPayload) (*models.Contact, error) {
		c := contact(id, p.Name)
		return &c, nil
	}
	out, err := s.Edit(context.Background(), "b", models.ContactPayload{Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, StateApplied, out.State)

	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, ids(snap))
	assert.Equal(t, "Bob", snap[1].Name)
}

func TestEdit_FailureLeavesCollection(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	gw.update = func(context.Context, string, models.ContactPayload) (*models.Contact, error) {
		return nil, fmt.Errorf("update: %w", common.ErrNotFound)
	}
	out, err := s.Edit(context.Background(), "a", models.ContactPayload{Name: "Zed"})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, StateFailed, out.State)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)
}

func TestRemove_OnlyAfterConfirmation(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"), contact("b", "Bo"))

	g := newGate()
	gw.delete = func(context.Context, string) error {
		g.wait()
		return nil
	}

	done := make(chan Outcome)
	go func() {
		out, _ := s.Remove(context.Background(), "a")
		done <- out
	}()

	<-g.started
	assert.True(t, s.Pending("a"))
	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot()), "still present while in flight")

	close(g.release)
	out := <-done
	assert.Equal(t, StateApplied, out.State)
	assert.Equal(t, "a", out.Contact.Id)
	assert.False(t, s.Pending("a"))
	assert.Equal(t, []string{"b"}, ids(s.Snapshot()))
}

func TestRemove_FailureKeepsEntry(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	gw.delete = func(context.Context, string) error { return fmt.Errorf("delete: %w", common.ErrNetwork) }
	out, err := s.Remove(context.Background(), "a")
	require.ErrorIs(t, err, common.ErrNetwork)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, []string{"a"}, ids(s.Snapshot()))
}

func TestToggleFavorite_UsesCanonicalResponse(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	gw.favorite = func(_ context.Context, id string) (*models.Contact, error) {
		c := contact(id, "Ann")
		c.IsFavorite = true
		c.UpdatedAt = timex.NewTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		return &c, nil
	}
	out, err := s.ToggleFavorite(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, out.Contact.IsFavorite)

	got, _ := s.Get("a")
	assert.True(t, got.IsFavorite)
	assert.Equal(t, 2024, got.UpdatedAt.Year())
}

func TestToggleFavorite_NetworkFailureLeavesEntry(t *testing.T) {
	gw := &fakeGateway{}
	before := contact("a", "Ann")
	before.UpdatedAt = timex.NewTime(time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC))
	s := loaded(t, gw, before)
	version := s.Version()

	gw.favorite = func(context.Context, string) (*models.Contact, error) {
		return nil, fmt.Errorf("toggle favorite: %w", common.ErrNetwork)
	}
	out, err := s.ToggleFavorite(context.Background(), "a")
	require.ErrorIs(t, err, common.ErrNetwork)
	assert.Equal(t, StateFailed, out.State)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, before.Name, got.Name)
	assert.False(t, got.IsFavorite)
	assert.True(t, before.UpdatedAt.Equal(got.UpdatedAt.Time))
	assert.Equal(t, version, s.Version())
	assert.False(t, s.Pending("a"))
}

func TestFetch_RefreshesEntryAndReturnsUnknown(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	gw.get = func(_ context.Context, id string) (*models.Contact, error) {
		c := contact(id, "Fresh "+id)
		return &c, nil
	}

	out, err := s.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Fresh a", out.Contact.Name)
	got, _ := s.Get("a")
	assert.Equal(t, "Fresh a", got.Name)

	v := s.Version()
	out, err = s.Fetch(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Equal(t, "Fresh zzz", out.Contact.Name)
	assert.Equal(t, 1, s.Len(), "fetching an unlisted contact does not insert it")
	assert.Equal(t, v, s.Version())
}

func TestStaleMutation_IsSuperseded(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	slow := newGate()
	var calls sync.WaitGroup
	calls.Add(1)
	gw.update = func(_ context.Context, id string, p models.ContactPayload) (*models.Contact, error) {
		if p.Name == "first" {
			slow.wait()
		}
		c := contact(id, p.Name)
		return &c, nil
	}

	firstDone := make(chan Outcome)
	go func() {
		defer calls.Done()
		out, _ := s.Edit(context.Background(), "a", models.ContactPayload{Name: "first"})
		firstDone <- out
	}()
	<-slow.started

	out, err := s.Edit(context.Background(), "a", models.ContactPayload{Name: "second"})
	require.NoError(t, err)
	assert.Equal(t, StateApplied, out.State)

	close(slow.release)
	first := <-firstDone
	calls.Wait()

	assert.Equal(t, StateSuperseded, first.State)
	assert.NoError(t, first.Err)
	got, _ := s.Get("a")
	assert.Equal(t, "second", got.Name, "issued-later edit wins even though it answered first")
}

func TestStaleLoad_KeepsNewerMutations(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"), contact("b", "Bo"), contact("c", "Cy"))

	g := newGate()
	gw.list = func(context.Context) ([]models.Contact, error) {
		g.wait()
		return []models.Contact{contact("a", "Ann (old)"), contact("b", "Bo (old)"), contact("c", "Cy (old)")}, nil
	}
	gw.update = func(_ context.Context, id string, p models.ContactPayload) (*models.Contact, error) {
		c := contact(id, p.Name)
		return &c, nil
	}
	gw.delete = func(context.Context, string) error { return nil }
	gw.create = func(_ context.Context, p models.ContactPayload) (*models.Contact, error) {
		c := contact("new", p.Name)
		return &c, nil
	}

	loadDone := make(chan error)
	go func() { loadDone <- s.Load(context.Background()) }()
	<-g.started

	_, err := s.Edit(context.Background(), "b", models.ContactPayload{Name: "Bob"})
	require.NoError(t, err)
	_, err = s.Remove(context.Background(), "c")
	require.NoError(t, err)
	_, err = s.Add(context.Background(), models.ContactPayload{Name: "Nu"})
	require.NoError(t, err)

	close(g.release)
	require.NoError(t, <-loadDone)

	snap := s.Snapshot()
	assert.Equal(t, []string{"new", "a", "b"}, ids(snap))
	assert.Equal(t, "Nu", snap[0].Name)
	assert.Equal(t, "Ann (old)", snap[1].Name, "untouched entries take the loaded value")
	assert.Equal(t, "Bob", snap[2].Name, "newer edit survives the older load")
}

func TestLoads_OutOfOrder(t *testing.T) {
	gw := &fakeGateway{}
	s := New(gw, nil)

	g := newGate()
	gw.list = func(context.Context) ([]models.Contact, error) {
		g.wait()
		return []models.Contact{contact("old", "Old")}, nil
	}

	done := make(chan error)
	go func() { done <- s.Load(context.Background()) }()
	<-g.started

	gw.list = func(context.Context) ([]models.Contact, error) {
		return []models.Contact{contact("new", "New")}, nil
	}
	require.NoError(t, s.Load(context.Background()))

	close(g.release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"new"}, ids(s.Snapshot()))
}

func TestRemove_IssuedBeforeNewerLoad_IsSuperseded(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	g := newGate()
	gw.delete = func(context.Context, string) error {
		g.wait()
		return nil
	}

	done := make(chan Outcome)
	go func() {
		out, _ := s.Remove(context.Background(), "a")
		done <- out
	}()
	<-g.started

	require.NoError(t, s.Load(context.Background()))
	close(g.release)

	out := <-done
	assert.Equal(t, StateSuperseded, out.State)
	assert.Equal(t, []string{"a"}, ids(s.Snapshot()), "the newer load is authoritative until the next reload")
}

func TestReset_DropsInFlightResponses(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	g := newGate()
	gw.create = func(context.Context, models.ContactPayload) (*models.Contact, error) {
		g.wait()
		c := contact("late", "Late")
		return &c, nil
	}

	done := make(chan Outcome)
	go func() {
		out, _ := s.Add(context.Background(), models.ContactPayload{Name: "Late"})
		done <- out
	}()
	<-g.started

	s.Reset()
	assert.False(t, s.Loaded())
	assert.Zero(t, s.Len())

	close(g.release)
	assert.Equal(t, StateSuperseded, (<-done).State)
	assert.Zero(t, s.Len())
}

func TestSubscribe_PendingThenSettled(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))

	events, cancel := s.Subscribe()
	gw.favorite = func(_ context.Context, id string) (*models.Contact, error) {
		c := contact(id, "Ann")
		c.IsFavorite = true
		return &c, nil
	}
	_, err := s.ToggleFavorite(context.Background(), "a")
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, OpFavorite, first.Op)
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, StatePending, first.Outcome.State)

	second := <-events
	assert.Equal(t, StateApplied, second.Outcome.State)
	assert.True(t, second.Outcome.Contact.IsFavorite)
	assert.Equal(t, s.Version(), second.Version)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestSubscribe_SlowSubscriberDoesNotBlock(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"))
	_, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer*2; i++ {
		require.NoError(t, s.Load(context.Background()))
	}
}

func TestConcurrentMutations_Consistent(t *testing.T) {
	gw := &fakeGateway{}
	s := loaded(t, gw, contact("a", "Ann"), contact("b", "Bo"))

	gw.update = func(_ context.Context, id string, p models.ContactPayload) (*models.Contact, error) {
		c := contact(id, p.Name)
		return &c, nil
	}
	gw.favorite = func(_ context.Context, id string) (*models.Contact, error) {
		c := contact(id, "fav")
		c.IsFavorite = true
		return &c, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Edit(context.Background(), "a", models.ContactPayload{Name: fmt.Sprint(i)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.ToggleFavorite(context.Background(), "b")
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.Pending("a")
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot()))
	assert.False(t, s.Pending("a"))
	assert.False(t, s.Pending("b"))
}

func TestOutcomeState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "applied", StateApplied.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "superseded", StateSuperseded.String())
	assert.Equal(t, "unknown", State(99).String())
}
