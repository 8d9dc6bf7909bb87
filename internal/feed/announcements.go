package feed

import (
	"context"
	"fmt"
	"sort"

	"github.com/workforge/forgedesk/internal/model"
)

// AnnouncementView is an announcement with its local read flag.
type AnnouncementView struct {
	model.Announcement
	Read bool
}

// AnnouncementBoard attaches read flags and orders newest first.
func AnnouncementBoard(items []model.Announcement, read model.ReadStatusMap) []AnnouncementView {
	out := make([]AnnouncementView, len(items))
	for i, a := range items {
		out[i] = AnnouncementView{Announcement: a, Read: read.IsRead(a.ID)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i].CreatedAt).After(sortKey(out[j].CreatedAt))
	})
	return out
}

// UnreadAnnouncements counts unread entries.
func UnreadAnnouncements(views []AnnouncementView) int {
	n := 0
	for _, v := range views {
		if !v.Read {
			n++
		}
	}
	return n
}

// Announcements loads the announcement read map and builds the board.
func (s *Service) Announcements(ctx context.Context, items []model.Announcement) ([]AnnouncementView, error) {
	m, err := s.reads.Announcements.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading announcement read status: %w", err)
	}
	return AnnouncementBoard(items, m), nil
}

// MarkAnnouncementRead records one announcement as read.
func (s *Service) MarkAnnouncementRead(ctx context.Context, id string) error {
	return s.MarkAllAnnouncementsRead(ctx, []string{id})
}

// MarkAllAnnouncementsRead records every listed announcement as read in one
// map write. Announcements have no server-side read state.
func (s *Service) MarkAllAnnouncementsRead(ctx context.Context, ids []string) error {
	m, err := s.reads.Announcements.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading announcement read status: %w", err)
	}

	now := s.now().UTC()
	next := m.Clone()
	for _, id := range ids {
		next[id] = model.ReadStatus{Read: true, ReadAt: now}
	}
	if err := s.reads.Announcements.Set(ctx, next); err != nil {
		return fmt.Errorf("saving announcement read status: %w", err)
	}
	return nil
}
