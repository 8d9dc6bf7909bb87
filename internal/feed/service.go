package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/readstate"
)

// MessageMarker is the backend side of read-state mutations.
type MessageMarker interface {
	MarkMessageRead(ctx context.Context, messageID string) error
	MarkAllMessagesRead(ctx context.Context) error
}

// MessageCache is the local copy of server message state. Once the server
// accepts a read mutation the cached flag becomes the source of truth.
type MessageCache interface {
	MarkMessageRead(ctx context.Context, id string) error
	MarkMessagesRead(ctx context.Context, recipientID string) (int64, error)
}

// Service applies read-state mutations for the current user.
type Service struct {
	reads   readstate.Pair
	backend MessageMarker
	cache   MessageCache
	self    model.Principal
	now     func() time.Time
	log     *logrus.Entry
}

// NewService wires a Service. cache may be nil, in which case local
// read entries are kept after server mutations instead of evicted.
func NewService(
	reads readstate.Pair,
	backend MessageMarker,
	cache MessageCache,
	self model.Principal,
) *Service {
	return &Service{
		reads:   reads,
		backend: backend,
		cache:   cache,
		self:    self,
		now:     time.Now,
		log:     logging.WithComponent("feed"),
	}
}

// SetClock overrides the time source used for ReadAt stamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Self returns the user the service acts for.
func (s *Service) Self() model.Principal {
	return s.self
}

// Snapshot loads the notification read-status map and aggregates in.
func (s *Service) Snapshot(ctx context.Context, in Input) (Result, error) {
	m, err := s.reads.Notifications.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading notification read status: %w", err)
	}
	in.ReadStatus = m
	in.Self = s.self
	return Aggregate(in), nil
}

// MarkAsRead records id as read locally and, for message notifications,
// on the server. The local write happens first and is not rolled back
// when the server call fails; the server error is returned.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	m, err := s.reads.Notifications.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading notification read status: %w", err)
	}

	next := m.Clone()
	next[id] = model.ReadStatus{Read: true, ReadAt: s.now().UTC()}
	if err := s.reads.Notifications.Set(ctx, next); err != nil {
		return fmt.Errorf("saving notification read status: %w", err)
	}

	messageID, ok := model.MessageIDFromNotification(id)
	if !ok {
		return nil
	}

	if err := s.backend.MarkMessageRead(ctx, messageID); err != nil {
		s.log.WithError(err).WithField("message_id", messageID).Warn("server mark-read failed")
		return fmt.Errorf("marking message %s read: %w", messageID, err)
	}

	if s.cache == nil {
		return nil
	}
	if err := s.cache.MarkMessageRead(ctx, messageID); err != nil {
		s.log.WithError(err).WithField("message_id", messageID).Debug("cached message not updated")
		return nil
	}
	return s.evict(ctx, []string{id})
}

// MarkAllAsRead records every listed entry as read in a single map write.
// When any unread message notification is among them, one bulk server
// call is made.
func (s *Service) MarkAllAsRead(ctx context.Context, items []model.Notification) error {
	m, err := s.reads.Notifications.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading notification read status: %w", err)
	}

	now := s.now().UTC()
	next := m.Clone()
	var unreadMessages []string
	for _, item := range items {
		next[item.ID] = model.ReadStatus{Read: true, ReadAt: now}
		if !item.Read && model.IsMessageNotification(item.ID) {
			unreadMessages = append(unreadMessages, item.ID)
		}
	}
	if err := s.reads.Notifications.Set(ctx, next); err != nil {
		return fmt.Errorf("saving notification read status: %w", err)
	}

	if len(unreadMessages) == 0 {
		return nil
	}

	if err := s.backend.MarkAllMessagesRead(ctx); err != nil {
		s.log.WithError(err).WithField("count", len(unreadMessages)).Warn("server mark-all-read failed")
		return fmt.Errorf("marking all messages read: %w", err)
	}

	if s.cache == nil {
		return nil
	}
	if _, err := s.cache.MarkMessagesRead(ctx, s.self.ID); err != nil {
		s.log.WithError(err).Debug("cached messages not updated")
		return nil
	}
	return s.evict(ctx, unreadMessages)
}

// ClearRead drops every read entry from the notification map. Entries
// whose source does not independently report them read become unread
// again on the next pass.
func (s *Service) ClearRead(ctx context.Context) error {
	m, err := s.reads.Notifications.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading notification read status: %w", err)
	}

	next := make(model.ReadStatusMap, len(m))
	for id, st := range m {
		if !st.Read {
			next[id] = st
		}
	}
	if err := s.reads.Notifications.Set(ctx, next); err != nil {
		return fmt.Errorf("saving notification read status: %w", err)
	}
	return nil
}

// evict removes local entries for messages whose read flag now lives in
// the cache.
func (s *Service) evict(ctx context.Context, ids []string) error {
	m, err := s.reads.Notifications.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading notification read status: %w", err)
	}

	next := m.Clone()
	for _, id := range ids {
		delete(next, id)
	}
	if err := s.reads.Notifications.Set(ctx, next); err != nil {
		return fmt.Errorf("saving notification read status: %w", err)
	}
	return nil
}
