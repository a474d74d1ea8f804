package message

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
	"parley/internal/pkg/metrics"
)

// Store is the capability set both message store backends implement.
// Exactly one backend is active at a time; callers obtain it through a
// Selector once per operation, so an in-flight operation always completes
// against the backend that was active when it started.
type Store interface {
	// Name identifies the backend ("durable" or "volatile") for logs and metrics.
	Name() string

	// SaveMessage persists m, assigning its id and creation timestamp.
	SaveMessage(ctx context.Context, m Message) (Message, error)

	// UpdateStatus sets the named flag to true on the message with the
	// given id. Returns ErrNotFound when the id does not resolve.
	UpdateStatus(ctx context.Context, id string, field StatusField) error

	// Query returns the conversation view for username against peer,
	// bounded to the most recent 500 matches in ascending creation order.
	Query(ctx context.Context, username, peer string) ([]Message, error)

	// FindAvatars resolves avatar URLs for the given usernames. Users
	// without a stored avatar are absent from the result map.
	FindAvatars(ctx context.Context, usernames []string) (map[string]string, error)

	// UpsertAvatar records url as the avatar of username, creating the
	// user record when necessary.
	UpsertAvatar(ctx context.Context, username, url string) error

	// ToggleReaction adds or removes the (emoji, by) reaction on the
	// message with the given id and returns the resulting reaction list.
	// The found flag is false when the id does not resolve.
	ToggleReaction(ctx context.Context, id, emoji, by string) (reactions []Reaction, found bool, err error)
}

// Selector yields the currently active store backend and accepts failure
// reports that may flip the selection to the volatile fallback.
type Selector interface {
	Current() Store
	ReportFailure(err error)
}

// Service orchestrates message persistence and enrichment on top of
// whichever backend the selector currently designates.
type Service struct {
	sel    Selector
	logger zerolog.Logger
}

// NewService constructs a Service reading its backend through sel.
func NewService(sel Selector) *Service {
	return &Service{
		sel:    sel,
		logger: logx.Logger().With().Str("component", "MessageService").Logger(),
	}
}

// PostMessage validates and persists a new message, then enriches it with
// the sender's avatar. An empty message (no text, no attachment) is
// rejected before any store call. An empty destination addresses the
// broadcast channel.
func (s *Service) PostMessage(ctx context.Context, from, to, text string, attachment *Attachment) (Enriched, error) {
	if strings.TrimSpace(text) == "" && attachment == nil {
		return Enriched{}, errs.NewError(errs.ErrEmptyMessage)
	}
	if len(text) > MaxContentBytes {
		return Enriched{}, errs.NewError(errs.ErrMessageContentTooLong)
	}
	if to == "" {
		to = Broadcast
	}

	st := s.sel.Current()

	saved, err := st.SaveMessage(ctx, Message{
		From:       from,
		To:         to,
		Text:       text,
		Attachment: attachment,
	})
	if err != nil {
		s.sel.ReportFailure(err)
		s.logger.Error().Err(err).
			Str("backend", st.Name()).
			Str("from", from).
			Msg("Failed to save message")
		return Enriched{}, err
	}

	metrics.MessageSaved(st.Name())

	return Enriched{Message: saved, Avatar: s.lookupAvatar(ctx, st, from)}, nil
}

// SetStatus flips the named delivery-state flag on a message and reports
// whether the id resolved. Setting an already-true flag is a no-op; an
// unknown id yields found=false with no error, mirroring ToggleReaction,
// so callers can skip notification for a mutation that never happened.
func (s *Service) SetStatus(ctx context.Context, id string, field StatusField) (bool, error) {
	if !field.Valid() {
		return false, errs.NewError(errs.ErrInvalidParams)
	}

	st := s.sel.Current()

	err := st.UpdateStatus(ctx, id, field)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		// A stale id is expected after a backend switch; not an error.
		return false, nil
	}

	s.sel.ReportFailure(err)
	s.logger.Error().Err(err).
		Str("backend", st.Name()).
		Str("message_id", id).
		Str("field", string(field)).
		Msg("Failed to update message status")
	return false, err
}

// ToggleReaction adds or removes a reaction and returns the resulting
// list. An unknown id yields found=false with no error: reactions are
// non-critical and a racing client is not punished.
func (s *Service) ToggleReaction(ctx context.Context, id, emoji, by string) ([]Reaction, bool, error) {
	if emoji == "" || by == "" {
		return nil, false, nil
	}

	st := s.sel.Current()

	reactions, found, err := st.ToggleReaction(ctx, id, emoji, by)
	if err != nil {
		s.sel.ReportFailure(err)
		s.logger.Error().Err(err).
			Str("backend", st.Name()).
			Str("message_id", id).
			Msg("Failed to toggle reaction")
		return nil, false, err
	}

	return reactions, found, nil
}

// History returns the conversation view for username against peer, with
// each message enriched by its sender's avatar. Avatars for the distinct
// sender set are resolved in a single batch lookup.
func (s *Service) History(ctx context.Context, username, peer string) ([]Enriched, error) {
	st := s.sel.Current()

	msgs, err := st.Query(ctx, username, peer)
	if err != nil {
		s.sel.ReportFailure(err)
		s.logger.Error().Err(err).
			Str("backend", st.Name()).
			Str("username", username).
			Msg("Failed to query message history")
		return nil, err
	}

	senders := make([]string, 0, len(msgs))
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.From]; !ok {
			seen[m.From] = struct{}{}
			senders = append(senders, m.From)
		}
	}

	avatars := map[string]string{}
	if len(senders) > 0 {
		avatars, err = st.FindAvatars(ctx, senders)
		if err != nil {
			// Enrichment is best-effort: serve the history without avatars.
			s.logger.Warn().Err(err).Str("backend", st.Name()).Msg("Avatar lookup failed during history enrichment")
			avatars = map[string]string{}
		}
	}

	enriched := make([]Enriched, 0, len(msgs))
	for _, m := range msgs {
		enriched = append(enriched, Enriched{Message: m, Avatar: optionalAvatar(avatars[m.From])})
	}

	return enriched, nil
}

// Avatars resolves avatar URLs for the given usernames against the active
// backend, degrading to an empty map on failure.
func (s *Service) Avatars(ctx context.Context, usernames []string) map[string]string {
	if len(usernames) == 0 {
		return map[string]string{}
	}

	st := s.sel.Current()

	avatars, err := st.FindAvatars(ctx, usernames)
	if err != nil {
		s.logger.Warn().Err(err).Str("backend", st.Name()).Msg("Avatar lookup failed")
		return map[string]string{}
	}
	return avatars
}

// SetAvatar records url as the avatar of username on the active backend.
func (s *Service) SetAvatar(ctx context.Context, username, url string) error {
	st := s.sel.Current()

	if err := st.UpsertAvatar(ctx, username, url); err != nil {
		s.sel.ReportFailure(err)
		s.logger.Error().Err(err).
			Str("backend", st.Name()).
			Str("username", username).
			Msg("Failed to upsert avatar")
		return err
	}
	return nil
}

// lookupAvatar resolves a single sender's avatar, degrading to null on
// any failure so enrichment never fails the enclosing operation.
func (s *Service) lookupAvatar(ctx context.Context, st Store, username string) *string {
	avatars, err := st.FindAvatars(ctx, []string{username})
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("Avatar lookup failed after save")
		return nil
	}
	return optionalAvatar(avatars[username])
}

// optionalAvatar converts the store's absent-as-empty convention into the
// wire's explicit null.
func optionalAvatar(url string) *string {
	if url == "" {
		return nil
	}
	return &url
}
