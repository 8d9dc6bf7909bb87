package workforge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/source"
)

// API paths.
const (
	pathMe            = "/api/auth/me"
	pathMessages      = "/api/messages"
	pathMarkAllRead   = "/api/messages/read-all"
	pathEmployees     = "/api/employees"
	pathAnnouncements = "/api/announcements"
)

// API implements source.Backend on top of Client.
type API struct {
	client *Client
}

var _ source.Backend = (*API)(nil)

// New creates an API for the deployment at baseURL.
func New(baseURL, token string, opts ...Option) *API {
	return &API{client: NewClient(baseURL, token, opts...)}
}

// Client exposes the underlying HTTP client.
func (a *API) Client() *Client {
	return a.client
}

// ValidateConnection calls the profile endpoint and returns a greeting
// naming the token owner.
func (a *API) ValidateConnection(ctx context.Context) (string, error) {
	me, err := a.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("validating Work Forge connection: %w", err)
	}
	name := me.Name
	if name == "" {
		name = me.ID
	}
	return fmt.Sprintf("Signed in as %s (%s)", name, me.Role), nil
}

// CurrentUser returns the profile of the token owner.
func (a *API) CurrentUser(ctx context.Context) (*model.Principal, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, pathMe, &raw); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	var u User
	if err := decodeObject(raw, &u, "user"); err != nil {
		return nil, fmt.Errorf("decoding current user: %w", err)
	}
	return &model.Principal{
		ID:   u.Key(),
		Name: u.DisplayName(),
		Role: u.Role,
	}, nil
}

// Fetch retrieves messages, roster and announcements. Announcements are
// optional: older deployments lack the endpoint, so a failure there
// yields an empty list instead of failing the pass.
func (a *API) Fetch(ctx context.Context) (*source.Snapshot, error) {
	messages, err := a.ListMessages(ctx)
	if err != nil {
		return nil, err
	}

	employees, err := a.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	announcements, err := a.ListAnnouncements(ctx)
	if err != nil {
		if source.IsAuthError(err) {
			return nil, err
		}
		a.client.log.WithError(err).Debug("announcements unavailable")
		announcements = nil
	}

	return &source.Snapshot{
		Messages:      messages,
		Employees:     employees,
		Announcements: announcements,
		FetchedAt:     time.Now(),
	}, nil
}

// ListMessages returns every message the token owner sent or received.
func (a *API) ListMessages(ctx context.Context) ([]model.Message, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, pathMessages, &raw); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	docs, err := decodeList[Message](raw, a.skipped("message"), "messages")
	if err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}

	out := make([]model.Message, 0, len(docs))
	for _, d := range docs {
		m := messageToModel(d)
		if m.ID == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ListEmployees returns the roster.
func (a *API) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, pathEmployees, &raw); err != nil {
		return nil, fmt.Errorf("fetching employees: %w", err)
	}

	docs, err := decodeList[User](raw, a.skipped("employee"), "employees", "users")
	if err != nil {
		return nil, fmt.Errorf("decoding employees: %w", err)
	}

	out := make([]model.Employee, 0, len(docs))
	for _, d := range docs {
		if d.Key() == "" {
			continue
		}
		out = append(out, userToEmployee(d))
	}
	return out, nil
}

// ListAnnouncements returns the announcement board.
func (a *API) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, pathAnnouncements, &raw); err != nil {
		return nil, fmt.Errorf("fetching announcements: %w", err)
	}

	docs, err := decodeList[Announcement](raw, a.skipped("announcement"), "announcements")
	if err != nil {
		return nil, fmt.Errorf("decoding announcements: %w", err)
	}

	out := make([]model.Announcement, 0, len(docs))
	for _, d := range docs {
		if d.Key() == "" {
			continue
		}
		out = append(out, model.Announcement{
			ID:        d.Key(),
			Title:     d.Title,
			Content:   d.Content,
			Author:    stringOrName(d.Author),
			Priority:  d.Priority,
			CreatedAt: ParseTimestamp(d.CreatedAt),
		})
	}
	return out, nil
}

// SendMessage posts a direct message.
func (a *API) SendMessage(ctx context.Context, recipientID, content string) (model.Message, error) {
	content = strings.TrimSpace(content)
	if recipientID == "" || content == "" {
		return model.Message{}, fmt.Errorf("recipient and content are required")
	}

	var raw json.RawMessage
	req := SendMessageRequest{RecipientID: recipientID, Content: content}
	if err := a.client.Post(ctx, pathMessages, req, &raw); err != nil {
		return model.Message{}, fmt.Errorf("sending message: %w", err)
	}

	var doc Message
	if err := decodeObject(raw, &doc, "message", "data"); err != nil {
		return model.Message{}, fmt.Errorf("decoding sent message: %w", err)
	}
	return messageToModel(doc), nil
}

// MarkMessageRead flags one message read on the server.
func (a *API) MarkMessageRead(ctx context.Context, messageID string) error {
	path := pathMessages + "/" + url.PathEscape(messageID) + "/read"
	if err := a.client.Put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking message %s read: %w", messageID, err)
	}
	return nil
}

// MarkAllMessagesRead flags every message addressed to the token owner read.
func (a *API) MarkAllMessagesRead(ctx context.Context) error {
	if err := a.client.Put(ctx, pathMarkAllRead, nil, nil); err != nil {
		return fmt.Errorf("marking all messages read: %w", err)
	}
	return nil
}

// skipped logs documents of kind that could not be decoded.
func (a *API) skipped(kind string) func(int, error) {
	return func(index int, err error) {
		a.client.log.WithError(err).WithFields(logrus.Fields{
			"kind":  kind,
			"index": index,
		}).Warn("skipping malformed document")
	}
}

func messageToModel(d Message) model.Message {
	m := model.Message{
		ID:          d.Key(),
		SenderID:    d.SenderID.ID,
		RecipientID: d.RecipientID.ID,
		Content:     d.Content,
		Read:        bool(d.Read),
	}

	sender := d.SenderID.User
	if sender == nil && d.Sender != nil {
		sender = d.Sender.User
		if m.SenderID == "" {
			m.SenderID = d.Sender.ID
		}
	}
	if sender != nil {
		m.SenderName = sender.DisplayName()
		m.SenderRole = sender.Role
	}

	m.Timestamp = ParseTimestamp(d.Timestamp)
	if m.Timestamp.IsZero() {
		m.Timestamp = ParseTimestamp(d.CreatedAt)
	}
	return m
}

func userToEmployee(u User) model.Employee {
	return model.Employee{
		ID:         u.Key(),
		Name:       u.DisplayName(),
		Role:       u.Role,
		Email:      u.Email,
		Department: u.DepartmentName(),
	}
}
