package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	notifmodels "inventory-backend/internal/apps/notification/models"
	"inventory-backend/internal/apps/otp/models"
	"inventory-backend/internal/apps/otp/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeDispatcher struct {
	mu     sync.Mutex
	reject bool
	msgs   []notifmodels.Message
}

func (d *fakeDispatcher) Dispatch(msg notifmodels.Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reject {
		return false
	}
	d.msgs = append(d.msgs, msg)
	return true
}

type failingStore struct {
	repository.Store
	err error
}

func (s failingStore) Put(context.Context, models.Entry, time.Duration) error { return s.err }

func (s failingStore) Consume(context.Context, string, string, time.Time, time.Duration) (models.Outcome, error) {
	return models.OutcomeNotFound, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestVerifier(opts ...Option) (Verifier, *fakeClock, *fakeDispatcher) {
	clock := newFakeClock()
	dispatcher := &fakeDispatcher{}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewVerifier(repository.NewMemoryStore(4), dispatcher, discardLogger(), opts...), clock, dispatcher
}

func TestIssueThenValidateSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVerifier()

	issued, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	code := issued.Code

	assert.True(t, v.Validate(ctx, "x@example.com", code))
	assert.False(t, v.Validate(ctx, "x@example.com", code))
}

func TestIssueReturnsEntryFromClock(t *testing.T) {
	v, clock, _ := newTestVerifier(WithWindow(90 * time.Second))

	issued, err := v.Issue(context.Background(), "x@example.com")
	require.NoError(t, err)
	assert.Equal(t, "x@example.com", issued.Identifier)
	assert.Equal(t, clock.Now(), issued.IssuedAt)
	assert.Equal(t, clock.Now().Add(90*time.Second), issued.ExpiresAt(v.Window()))
}

func TestValidateWithoutIssue(t *testing.T) {
	v, _, _ := newTestVerifier()

	assert.False(t, v.Validate(context.Background(), "z@example.com", "123456"))

	out, err := v.Check(context.Background(), "z@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNotFound, out)
}

func TestMismatchDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVerifier(WithGenerator(func() (string, error) { return "123456", nil }))

	issued, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	code := issued.Code

	out, err := v.Check(ctx, "x@example.com", "000000")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeMismatch, out)

	assert.True(t, v.Validate(ctx, "x@example.com", code))
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	ctx := context.Background()
	codes := []string{"111111", "222222"}
	v, _, _ := newTestVerifier(WithGenerator(func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}))

	firstEntry, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	first := firstEntry.Code
	secondEntry, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	second := secondEntry.Code

	assert.False(t, v.Validate(ctx, "x@example.com", first))
	assert.True(t, v.Validate(ctx, "x@example.com", second))
}

func TestExpiredCodeIsConsumed(t *testing.T) {
	ctx := context.Background()
	v, clock, _ := newTestVerifier()

	issued, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	code := issued.Code

	clock.Advance(5*time.Minute + time.Second)

	out, err := v.Check(ctx, "x@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeExpired, out)

	out, err = v.Check(ctx, "x@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNotFound, out)
}

func TestCodeValidAtWindowBoundary(t *testing.T) {
	ctx := context.Background()
	v, clock, _ := newTestVerifier()

	issued, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	code := issued.Code

	clock.Advance(5 * time.Minute)
	assert.True(t, v.Validate(ctx, "x@example.com", code))
}

func TestCustomWindow(t *testing.T) {
	ctx := context.Background()
	v, clock, _ := newTestVerifier(WithWindow(30 * time.Second))
	assert.Equal(t, 30*time.Second, v.Window())

	issued, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	code := issued.Code

	clock.Advance(31 * time.Second)
	assert.False(t, v.Validate(ctx, "x@example.com", code))
}

func TestCodeFormat(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVerifier()
	pattern := regexp.MustCompile(`^\d{6}$`)

	for i := 0; i < 200; i++ {
		issued, err := v.Issue(ctx, "x@example.com")
		require.NoError(t, err)
		code := issued.Code
		assert.Regexp(t, pattern, code)
	}
}

func TestIssueDispatchesVerificationEmail(t *testing.T) {
	v, _, dispatcher := newTestVerifier()

	issued, err := v.Issue(context.Background(), "x@example.com")
	require.NoError(t, err)
	code := issued.Code

	require.Len(t, dispatcher.msgs, 1)
	msg := dispatcher.msgs[0]
	assert.Equal(t, "x@example.com", msg.To)
	assert.Equal(t, "Inventory System - Email Verification", msg.Subject)
	assert.True(t, msg.HTML)
	assert.Contains(t, msg.Body, "<b>"+code+"</b>")
	assert.Contains(t, msg.Body, "valid for 5 minutes")
}

func TestDispatchFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	v, _, dispatcher := newTestVerifier()
	dispatcher.reject = true

	issued, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	code := issued.Code
	assert.True(t, v.Validate(ctx, "x@example.com", code))
}

func TestIssueErrors(t *testing.T) {
	ctx := context.Background()

	v, _, _ := newTestVerifier()
	_, err := v.Issue(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)

	genErr := errors.New("entropy exhausted")
	v, _, _ = newTestVerifier(WithGenerator(func() (string, error) { return "", genErr }))
	_, err = v.Issue(ctx, "x@example.com")
	assert.ErrorIs(t, err, genErr)

	storeErr := errors.New("redis unavailable")
	v = NewVerifier(failingStore{err: storeErr}, &fakeDispatcher{}, discardLogger())
	_, err = v.Issue(ctx, "x@example.com")
	assert.ErrorIs(t, err, storeErr)

	_, err = v.Check(ctx, "x@example.com", "123456")
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, v.Validate(ctx, "x@example.com", "123456"))
}

func TestConcurrentValidateSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVerifier()

	issued, err := v.Issue(ctx, "x@example.com")
	require.NoError(t, err)
	code := issued.Code

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v.Validate(ctx, "x@example.com", code) {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestIdentifiersAreIndependent(t *testing.T) {
	ctx := context.Background()
	v, _, _ := newTestVerifier()

	aEntry, err := v.Issue(ctx, "a@example.com")
	require.NoError(t, err)
	a := aEntry.Code
	bEntry, err := v.Issue(ctx, "b@example.com")
	require.NoError(t, err)
	b := bEntry.Code

	assert.True(t, v.Validate(ctx, "b@example.com", b))
	assert.True(t, v.Validate(ctx, "a@example.com", a))
}

func TestSweeperRemovesStaleEntries(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := repository.NewMemoryStore(4)
	v := NewVerifier(store, &fakeDispatcher{}, discardLogger(), WithClock(clock.Now))

	_, err := v.Issue(ctx, "old@example.com")
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)
	freshEntry, err := v.Issue(ctx, "fresh@example.com")
	require.NoError(t, err)
	fresh := freshEntry.Code
	clock.Advance(2 * time.Minute)

	sweeper := NewSweeper(store, v.Window(), time.Minute, discardLogger())
	sweeper.now = clock.Now

	assert.Equal(t, 1, sweeper.SweepOnce(ctx))
	assert.True(t, v.Validate(ctx, "fresh@example.com", fresh))
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	sweeper := NewSweeper(repository.NewMemoryStore(1), time.Minute, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
