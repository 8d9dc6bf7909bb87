package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

// Doc is a loosely typed JSON document as the backend would store it.
type Doc = map[string]interface{}

// FakeBackend is an in-process Work Forge API.
type FakeBackend struct {
	mu sync.Mutex

	token         string
	me            Doc
	messages      []Doc
	employees     []Doc
	announcements []Doc

	noAnnouncements bool
	failStatus      int
	failRemaining   int
	requests        int
	markRead        []string
	markAll         int
	sent            int

	server *httptest.Server
}

// NewFakeBackend starts a fake backend that accepts token and reports me
// as the current user. It is shut down when the test ends.
func NewFakeBackend(t *testing.T, token string, me Doc) *FakeBackend {
	t.Helper()

	f := &FakeBackend{token: token, me: me}
	f.server = httptest.NewServer(f.router())
	t.Cleanup(f.server.Close)
	return f
}

// URL is the base URL to point clients at.
func (f *FakeBackend) URL() string {
	return f.server.URL
}

// Msg builds a message document with a string sender.
func Msg(id, sender, recipient, content string, at time.Time, read bool) Doc {
	d := Doc{
		"_id":         id,
		"senderId":    sender,
		"recipientId": recipient,
		"content":     content,
		"read":        read,
	}
	if !at.IsZero() {
		d["timestamp"] = at.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return d
}

// User builds a user document.
func User(id, name, role string) Doc {
	return Doc{"_id": id, "name": name, "role": role, "email": id + "@forge.test"}
}

// SetMessages replaces the message collection.
func (f *FakeBackend) SetMessages(docs ...Doc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = docs
}

// SetEmployees replaces the roster.
func (f *FakeBackend) SetEmployees(docs ...Doc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.employees = docs
}

// SetAnnouncements replaces the announcement board.
func (f *FakeBackend) SetAnnouncements(docs ...Doc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announcements = docs
}

// DisableAnnouncements makes the announcements endpoint return 404.
func (f *FakeBackend) DisableAnnouncements() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noAnnouncements = true
}

// FailNext makes the next n requests answer with status.
func (f *FakeBackend) FailNext(n, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRemaining = n
	f.failStatus = status
}

// Requests returns how many requests reached the server.
func (f *FakeBackend) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

// MarkReadCalls returns the IDs passed to the single mark-read endpoint.
func (f *FakeBackend) MarkReadCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.markRead...)
}

// MarkAllCalls returns how often the bulk mark-read endpoint was hit.
func (f *FakeBackend) MarkAllCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markAll
}

// Message returns a copy of the stored message with id.
func (f *FakeBackend) Message(id string) (Doc, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.messages {
		if d["_id"] == id {
			out := Doc{}
			for k, v := range d {
				out[k] = v
			}
			return out, true
		}
	}
	return nil, false
}

func (f *FakeBackend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(f.middleware)

	r.HandleFunc("/api/auth/me", f.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/api/messages", f.handleListMessages).Methods(http.MethodGet)
	r.HandleFunc("/api/messages", f.handleSend).Methods(http.MethodPost)
	r.HandleFunc("/api/messages/read-all", f.handleMarkAll).Methods(http.MethodPut)
	r.HandleFunc("/api/messages/{id}/read", f.handleMarkRead).Methods(http.MethodPut)
	r.HandleFunc("/api/employees", f.handleEmployees).Methods(http.MethodGet)
	r.HandleFunc("/api/announcements", f.handleAnnouncements).Methods(http.MethodGet)

	return r
}

func (f *FakeBackend) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		failing := f.failRemaining > 0
		status := f.failStatus
		if failing {
			f.failRemaining--
		}
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+f.token {
			writeJSON(w, http.StatusUnauthorized, Doc{"message": "invalid token"})
			return
		}
		if failing {
			writeJSON(w, status, Doc{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) handleMe(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, Doc{"user": f.me})
}

func (f *FakeBackend) handleListMessages(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	me := f.me["_id"]
	var mine []Doc
	for _, d := range f.messages {
		if d["senderId"] == me || d["recipientId"] == me {
			mine = append(mine, d)
		}
	}
	if mine == nil {
		mine = []Doc{}
	}
	writeJSON(w, http.StatusOK, Doc{"messages": mine})
}

func (f *FakeBackend) handleSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RecipientID string `json:"recipientId"`
		Content     string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RecipientID == "" {
		writeJSON(w, http.StatusBadRequest, Doc{"error": "recipientId and content required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	doc := Msg(fmt.Sprintf("sent-%d", f.sent), fmt.Sprint(f.me["_id"]), body.RecipientID, body.Content, time.Now(), false)
	doc["senderId"] = f.me
	f.messages = append(f.messages, Doc{
		"_id":         doc["_id"],
		"senderId":    f.me["_id"],
		"recipientId": body.RecipientID,
		"content":     body.Content,
		"timestamp":   doc["timestamp"],
		"read":        false,
	})
	writeJSON(w, http.StatusCreated, Doc{"message": doc})
}

func (f *FakeBackend) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	f.mu.Lock()
	defer f.mu.Unlock()
	f.markRead = append(f.markRead, id)
	for _, d := range f.messages {
		if d["_id"] == id {
			d["read"] = true
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, Doc{"message": "message not found"})
}

func (f *FakeBackend) handleMarkAll(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAll++
	n := 0
	for _, d := range f.messages {
		if d["recipientId"] == f.me["_id"] && d["read"] != true {
			d["read"] = true
			n++
		}
	}
	writeJSON(w, http.StatusOK, Doc{"modified": n})
}

func (f *FakeBackend) handleEmployees(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := f.employees
	if docs == nil {
		docs = []Doc{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (f *FakeBackend) handleAnnouncements(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noAnnouncements {
		writeJSON(w, http.StatusNotFound, Doc{"message": "not found"})
		return
	}
	docs := f.announcements
	if docs == nil {
		docs = []Doc{}
	}
	writeJSON(w, http.StatusOK, Doc{"announcements": docs})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
