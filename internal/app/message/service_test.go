package message_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/app/message"
	"parley/internal/app/store"
	"parley/internal/pkg/errs"
)

// staticSelector pins the service to one backend, the way the monitor does
// when connectivity never changes.
type staticSelector struct {
	st       message.Store
	failures []error
}

func (s *staticSelector) Current() message.Store { return s.st }
func (s *staticSelector) ReportFailure(err error) {
	s.failures = append(s.failures, err)
}

// countingStore wraps a backend and counts FindAvatars calls.
type countingStore struct {
	message.Store
	avatarLookups int
}

func (c *countingStore) FindAvatars(ctx context.Context, usernames []string) (map[string]string, error) {
	c.avatarLookups++
	return c.Store.FindAvatars(ctx, usernames)
}

// failingStore errors every operation, standing in for an unreachable backend.
type failingStore struct{}

var errDown = errors.New("dial tcp: connection refused")

func (failingStore) Name() string { return "durable" }
func (failingStore) SaveMessage(context.Context, message.Message) (message.Message, error) {
	return message.Message{}, errDown
}
func (failingStore) UpdateStatus(context.Context, string, message.StatusField) error {
	return errDown
}
func (failingStore) Query(context.Context, string, string) ([]message.Message, error) {
	return nil, errDown
}
func (failingStore) FindAvatars(context.Context, []string) (map[string]string, error) {
	return nil, errDown
}
func (failingStore) UpsertAvatar(context.Context, string, string) error { return errDown }
func (failingStore) ToggleReaction(context.Context, string, string, string) ([]message.Reaction, bool, error) {
	return nil, false, errDown
}

func newService(t *testing.T) (*message.Service, *staticSelector) {
	t.Helper()

	sel := &staticSelector{st: store.NewVolatile()}
	return message.NewService(sel), sel
}

func TestPostMessageRejectsEmptyBody(t *testing.T) {
	svc, sel := newService(t)

	_, err := svc.PostMessage(context.Background(), "alice", "bob", "   ", nil)
	require.Error(t, err)

	var customErr *errs.CustomError
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, errs.ErrEmptyMessage, customErr.Code)
	assert.Empty(t, sel.failures)

	// No store call happened: the history stays empty.
	history, err := svc.History(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPostMessageAttachmentOnlyIsAccepted(t *testing.T) {
	svc, _ := newService(t)

	attachment := &message.Attachment{
		URL:      "https://cdn/file.png",
		Name:     "file.png",
		Size:     1234,
		MimeType: "image/png",
	}

	enriched, err := svc.PostMessage(context.Background(), "alice", "bob", "", attachment)
	require.NoError(t, err)
	assert.NotEmpty(t, enriched.ID)
	assert.Equal(t, attachment, enriched.Attachment)
}

func TestPostMessageDefaultsToBroadcast(t *testing.T) {
	svc, _ := newService(t)

	enriched, err := svc.PostMessage(context.Background(), "alice", "", "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "all", enriched.To)
}

func TestPostMessageEnrichesWithSenderAvatar(t *testing.T) {
	svc, _ := newService(t)

	require.NoError(t, svc.SetAvatar(context.Background(), "alice", "https://cdn/alice.png"))

	enriched, err := svc.PostMessage(context.Background(), "alice", "bob", "hi", nil)
	require.NoError(t, err)
	require.NotNil(t, enriched.Avatar)
	assert.Equal(t, "https://cdn/alice.png", *enriched.Avatar)

	// A sender who never uploaded an avatar enriches with a null one.
	enriched, err = svc.PostMessage(context.Background(), "bob", "alice", "yo", nil)
	require.NoError(t, err)
	assert.Nil(t, enriched.Avatar)
}

func TestHistoryRoundTrip(t *testing.T) {
	svc, _ := newService(t)

	require.NoError(t, svc.SetAvatar(context.Background(), "alice", "https://cdn/alice.png"))

	posted, err := svc.PostMessage(context.Background(), "alice", "bob", "hello bob", nil)
	require.NoError(t, err)

	// Both ends of the conversation see the message.
	for _, view := range [][2]string{{"bob", "alice"}, {"alice", "bob"}} {
		history, err := svc.History(context.Background(), view[0], view[1])
		require.NoError(t, err)
		require.Len(t, history, 1)

		got := history[0]
		assert.Equal(t, posted.ID, got.ID)
		assert.Equal(t, "alice", got.From)
		assert.Equal(t, "bob", got.To)
		assert.Equal(t, "hello bob", got.Text)
		require.NotNil(t, got.Avatar)
		assert.Equal(t, "https://cdn/alice.png", *got.Avatar)
		assert.False(t, got.Delivered)
		assert.False(t, got.Seen)
		assert.Empty(t, got.Reactions)
	}
}

func TestHistoryBatchesAvatarLookups(t *testing.T) {
	counting := &countingStore{Store: store.NewVolatile()}
	sel := &staticSelector{st: counting}
	svc := message.NewService(sel)

	for _, from := range []string{"alice", "bob", "alice", "carol", "bob"} {
		_, err := svc.PostMessage(context.Background(), from, "all", "hi", nil)
		require.NoError(t, err)
	}

	counting.avatarLookups = 0

	history, err := svc.History(context.Background(), "alice", "all")
	require.NoError(t, err)
	require.Len(t, history, 5)

	// One batch lookup for the distinct sender set, not one per message.
	assert.Equal(t, 1, counting.avatarLookups)
}

func TestSetStatusIdempotentAndSilentOnUnknownID(t *testing.T) {
	svc, sel := newService(t)

	posted, err := svc.PostMessage(context.Background(), "alice", "bob", "hi", nil)
	require.NoError(t, err)

	found, err := svc.SetStatus(context.Background(), posted.ID, message.StatusDelivered)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.SetStatus(context.Background(), posted.ID, message.StatusDelivered)
	require.NoError(t, err)
	assert.True(t, found)

	history, err := svc.History(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, history[0].Delivered)

	// An unknown id is a silent no-op, not an error, and reports found=false
	// so callers know nothing changed.
	found, err = svc.SetStatus(context.Background(), "mem_gone", message.StatusSeen)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, sel.failures)
}

func TestSetStatusRejectsUnknownField(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SetStatus(context.Background(), "mem_x", message.StatusField("archived"))
	require.Error(t, err)
}

func TestToggleReactionUnknownIDIsSilent(t *testing.T) {
	svc, sel := newService(t)

	reactions, found, err := svc.ToggleReaction(context.Background(), "mem_gone", "👍", "alice")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, reactions)
	assert.Empty(t, sel.failures)
}

func TestToggleReactionRoundTrip(t *testing.T) {
	svc, _ := newService(t)

	posted, err := svc.PostMessage(context.Background(), "alice", "all", "hi", nil)
	require.NoError(t, err)

	reactions, found, err := svc.ToggleReaction(context.Background(), posted.ID, "👍", "bob")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []message.Reaction{{Emoji: "👍", By: "bob"}}, reactions)

	reactions, found, err = svc.ToggleReaction(context.Background(), posted.ID, "👍", "bob")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, reactions)
}

func TestStoreFailuresAreReported(t *testing.T) {
	sel := &staticSelector{st: failingStore{}}
	svc := message.NewService(sel)

	_, err := svc.PostMessage(context.Background(), "alice", "bob", "hi", nil)
	require.Error(t, err)

	_, err = svc.History(context.Background(), "alice", "bob")
	require.Error(t, err)

	_, err = svc.SetStatus(context.Background(), "some-id", message.StatusSeen)
	require.Error(t, err)

	_, _, err = svc.ToggleReaction(context.Background(), "some-id", "👍", "alice")
	require.Error(t, err)

	assert.Len(t, sel.failures, 4)
}

func TestAvatarsDegradesToEmptyOnFailure(t *testing.T) {
	sel := &staticSelector{st: failingStore{}}
	svc := message.NewService(sel)

	avatars := svc.Avatars(context.Background(), []string{"alice"})
	assert.Empty(t, avatars)
}
