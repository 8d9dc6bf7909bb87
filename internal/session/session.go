// Package session wires configuration, credentials, the local cache and
// the Work Forge client into the services the TUI and the CLI share.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/workforge/forgedesk/internal/auth"
	"github.com/workforge/forgedesk/internal/credential"
	"github.com/workforge/forgedesk/internal/feed"
	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/readstate"
	"github.com/workforge/forgedesk/internal/source"
	"github.com/workforge/forgedesk/internal/source/workforge"
	"github.com/workforge/forgedesk/internal/store"
	forgesync "github.com/workforge/forgedesk/internal/sync"
	"github.com/workforge/forgedesk/internal/thread"
)

// ErrNotSignedIn is returned when no bearer token is available.
var ErrNotSignedIn = errors.New("not signed in; run `forgedesk login`")

// Options tune Open.
type Options struct {
	// Ephemeral keeps read-status maps in memory instead of the database.
	Ephemeral bool

	// ClientOptions are passed to the Work Forge client.
	ClientOptions []workforge.Option
}

// Session is a signed-in user with everything needed to read and mutate
// the feed.
type Session struct {
	Config  *model.AppConfig
	Store   *store.SQLiteStore
	Backend *workforge.API
	Self    model.Principal
	Feed    *feed.Service
	Poller  *forgesync.Poller

	// Started stamps the static system notifications.
	Started time.Time

	log *logrus.Entry
}

// NewBackend builds a Work Forge client for cfg.
func NewBackend(cfg *model.AppConfig, token string, opts ...workforge.Option) *workforge.API {
	opts = append([]workforge.Option{workforge.WithTimeout(cfg.RequestTimeout())}, opts...)
	return workforge.New(cfg.Server.BaseURL, token, opts...)
}

// Identify resolves the current user from configuration overrides, the
// profile endpoint and the token claims. An unreachable profile endpoint
// is tolerated when the token names the user; a rejected token is not.
func Identify(ctx context.Context, backend source.Backend, cfg *model.AppConfig, token string) (model.Principal, error) {
	profile, err := backend.CurrentUser(ctx)
	if err != nil {
		if source.IsAuthError(err) {
			return model.Principal{}, err
		}
		logging.WithComponent("session").WithError(err).Warn("profile unavailable, using token claims")
		profile = nil
	}

	self, err := auth.Resolve(token, cfg.User, profile)
	if err != nil {
		return model.Principal{}, fmt.Errorf("identifying current user: %w", err)
	}
	return self, nil
}

// Open signs in with token and opens the local cache.
func Open(ctx context.Context, cfg *model.AppConfig, token string, opts Options) (*Session, error) {
	if token == "" {
		return nil, ErrNotSignedIn
	}

	backend := NewBackend(cfg, token, opts.ClientOptions...)
	self, err := Identify(ctx, backend, cfg, token)
	if err != nil {
		return nil, err
	}

	s, err := openStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	reads := readstate.NewKVPair(s)
	if opts.Ephemeral {
		reads = readstate.NewMemoryPair()
	}

	log := logging.WithComponent("session")
	log.WithFields(logrus.Fields{
		"user": self.ID,
		"role": self.Role,
		"url":  cfg.Server.BaseURL,
	}).Info("session opened")

	return &Session{
		Config:  cfg,
		Store:   s,
		Backend: backend,
		Self:    self,
		Feed:    feed.NewService(reads, backend, s, self),
		Poller:  forgesync.New(s, backend, self.ID, cfg.PollInterval()),
		Started: time.Now(),
		log:     log,
	}, nil
}

func openStore(path string) (*store.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	return s, nil
}

// Close stops the poller and closes the cache.
func (s *Session) Close() error {
	s.Poller.Stop()
	return s.Store.Close()
}

// View is one consistent read of the cache.
type View struct {
	Feed          feed.Result
	Threads       []model.Thread
	Announcements []feed.AnnouncementView
	Roster        []model.Employee
}

// UnreadAnnouncements counts unread board entries.
func (v *View) UnreadAnnouncements() int {
	return feed.UnreadAnnouncements(v.Announcements)
}

// Load aggregates the cached data. replies are the reply entries the
// caller has created during this process.
func (s *Session) Load(ctx context.Context, replies []model.Notification) (*View, error) {
	messages, err := s.Store.GetMessages(ctx, store.MessageFilter{UserID: s.Self.ID})
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	roster, err := s.Store.GetEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	announcements, err := s.Store.GetAnnouncements(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading announcements: %w", err)
	}

	res, err := s.Feed.Snapshot(ctx, feed.Input{
		System:   feed.SystemNotifications(s.Started),
		Replies:  replies,
		Messages: messages,
		Roster:   roster,
	})
	if err != nil {
		return nil, err
	}

	board, err := s.Feed.Announcements(ctx, announcements)
	if err != nil {
		return nil, err
	}

	return &View{
		Feed:          res,
		Threads:       thread.Build(s.Self, messages, roster),
		Announcements: board,
		Roster:        roster,
	}, nil
}

// Send posts content to recipientID, caches the stored message and
// returns the reply entry for the feed.
func (s *Session) Send(ctx context.Context, recipientID, content string, roster []model.Employee) (model.Notification, error) {
	sent, err := s.Backend.SendMessage(ctx, recipientID, content)
	if err != nil {
		return model.Notification{}, err
	}
	if sent.SenderID == "" {
		sent.SenderID = s.Self.ID
	}
	if sent.RecipientID == "" {
		sent.RecipientID = recipientID
	}
	if sent.Timestamp.IsZero() {
		sent.Timestamp = time.Now()
	}
	if sent.ID != "" {
		if err := s.Store.UpsertMessages(ctx, []model.Message{sent}); err != nil {
			s.log.WithError(err).Warn("sent message not cached")
		}
	}

	name := thread.Resolve(s.Self, recipientID, model.NewRoster(roster)).Name
	return feed.NewReply(name, sent.Content, sent.Timestamp), nil
}

// saveToken is replaced in tests.
var saveToken = credential.SaveToken

// Login validates token against baseURL, stores the token and writes
// baseURL to the configuration file at cfgPath. It returns the greeting
// reported by the backend.
func Login(ctx context.Context, cfgPath string, cfg *model.AppConfig, baseURL, token string) (string, error) {
	next := *cfg
	next.Server.BaseURL = baseURL

	greeting, err := NewBackend(&next, token).ValidateConnection(ctx)
	if err != nil {
		return "", err
	}

	if err := saveToken(token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	if err := model.SaveConfig(cfgPath, &next); err != nil {
		return "", err
	}

	*cfg = next
	return greeting, nil
}

// deleteToken is replaced in tests.
var deleteToken = credential.DeleteToken

// Logout removes the stored bearer token. A token supplied through the
// environment is not affected.
func Logout() error {
	if err := deleteToken(); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	logging.WithComponent("session").Info("signed out")
	return nil
}
