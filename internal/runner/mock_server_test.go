package runner

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type mockUser struct {
	ID        string
	Username  string
	Followers int
	Followees []string
}

type mockPost struct {
	ID     string
	Likers []string
}

// MockInstagramServer serves the web API endpoints a crawl uses from an
// in-memory social graph. Responses can be overridden per session.
type MockInstagramServer struct {
	server       *httptest.Server
	requestCount int32

	mu        sync.Mutex
	users     map[string]mockUser
	posts     map[string][]mockPost
	errors    map[string]int // "session path" -> status code
	bySession map[string][]string
}

func NewMockInstagramServer(t *testing.T) *MockInstagramServer {
	m := &MockInstagramServer{
		users:     make(map[string]mockUser),
		posts:     make(map[string][]mockPost),
		errors:    make(map[string]int),
		bySession: make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/web_profile_info/", m.handleWebProfile)
	mux.HandleFunc("/api/v1/users/", m.handleUserInfo)
	mux.HandleFunc("/api/v1/friendships/", m.handleFriendships)
	mux.HandleFunc("/api/v1/feed/user/", m.handleFeed)
	mux.HandleFunc("/api/v1/media/", m.handleLikers)

	m.server = httptest.NewServer(m.record(mux))
	t.Cleanup(m.server.Close)
	return m
}

func (m *MockInstagramServer) URL() string { return m.server.URL }

func (m *MockInstagramServer) AddUser(u mockUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MockInstagramServer) AddPost(owner string, p mockPost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[owner] = append(m.posts[owner], p)
}

// SetError makes path answer code for requests of session
func (m *MockInstagramServer) SetError(session, path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[session+" "+path] = code
}

// Requests lists the paths requested with session
func (m *MockInstagramServer) Requests(session string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.bySession[session]...)
}

func (m *MockInstagramServer) GetRequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

func (m *MockInstagramServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.requestCount, 1)

		session := ""
		if c, err := r.Cookie("sessionid"); err == nil {
			session = c.Value
		}

		m.mu.Lock()
		m.bySession[session] = append(m.bySession[session], r.URL.Path)
		code := m.errors[session+" "+r.URL.Path]
		m.mu.Unlock()

		if code > 0 {
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]interface{}{"message": "mock error", "status": "fail"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockInstagramServer) handleWebProfile(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	username := r.URL.Query().Get("username")
	for _, u := range m.users {
		if u.Username == username {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"user": map[string]interface{}{
					"id":               u.ID,
					"username":         u.Username,
					"edge_followed_by": map[string]int{"count": u.Followers},
					"edge_follow":      map[string]int{"count": len(u.Followees)},
				}},
				"status": "ok",
			})
			return
		}
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{"user": nil}, "status": "ok"})
}

// /api/v1/users/<id>/info/
func (m *MockInstagramServer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := pathSegment(r.URL.Path, 3)
	u, ok := m.users[id]
	if !ok {
		json.NewEncoder(w).Encode(map[string]interface{}{"user": nil, "status": "ok"})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user": map[string]interface{}{
			"pk":              u.ID,
			"username":        u.Username,
			"follower_count":  u.Followers,
			"following_count": len(u.Followees),
		},
		"status": "ok",
	})
}

// /api/v1/friendships/<id>/<following|followers>/
func (m *MockInstagramServer) handleFriendships(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := pathSegment(r.URL.Path, 3)
	var ids []string
	switch pathSegment(r.URL.Path, 4) {
	case "following":
		ids = m.users[id].Followees
	case "followers":
		for _, u := range m.users {
			for _, f := range u.Followees {
				if f == id {
					ids = append(ids, u.ID)
				}
			}
		}
	}
	m.writeUsers(w, ids)
}

func (m *MockInstagramServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []map[string]interface{}{}
	for _, p := range m.posts[pathSegment(r.URL.Path, 4)] {
		items = append(items, map[string]interface{}{"pk": p.ID, "code": "C" + p.ID, "like_count": len(p.Likers)})
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"items": items, "more_available": false})
}

// /api/v1/media/<id>/likers/
func (m *MockInstagramServer) handleLikers(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	media := pathSegment(r.URL.Path, 3)
	for _, posts := range m.posts {
		for _, p := range posts {
			if p.ID == media {
				m.writeUsers(w, p.Likers)
				return
			}
		}
	}
	m.writeUsers(w, nil)
}

func (m *MockInstagramServer) writeUsers(w http.ResponseWriter, ids []string) {
	users := []map[string]interface{}{}
	for _, id := range ids {
		users = append(users, map[string]interface{}{"pk": id, "username": m.users[id].Username})
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"users": users, "status": "ok"})
}

func pathSegment(path string, i int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}
