package model

import "time"

// Keys under which the two read-status maps are persisted.
const (
	NotificationReadStatusKey = "workforge_notification_read_status"
	AnnouncementReadStatusKey = "workforge_announcement_read_status"
)

// ReadStatus is the locally persisted read bit for one feed entry.
type ReadStatus struct {
	Read   bool      `json:"read"`
	ReadAt time.Time `json:"readAt"`
}

// ReadStatusMap maps notification or announcement IDs to their read
// status. A missing key means unread.
type ReadStatusMap map[string]ReadStatus

// IsRead reports the locally recorded read bit for id.
func (m ReadStatusMap) IsRead(id string) bool {
	return m[id].Read
}

// Clone returns a shallow copy so callers can mutate without touching
// the original.
func (m ReadStatusMap) Clone() ReadStatusMap {
	out := make(ReadStatusMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
