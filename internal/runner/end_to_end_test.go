package runner

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcrawler/pkg/auth"
	"igcrawler/pkg/config"
	"igcrawler/pkg/crawl"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/logger"
)

func seedMockGraph(server *MockInstagramServer) {
	server.AddUser(mockUser{ID: "100", Username: "alice", Followers: 1, Followees: []string{"1", "2"}})
	server.AddUser(mockUser{ID: "1", Username: "bob", Followers: 2, Followees: []string{"2"}})
	server.AddUser(mockUser{ID: "2", Username: "carol", Followers: 1, Followees: []string{"1"}})
	server.AddUser(mockUser{ID: "3", Username: "dave", Followers: 0, Followees: []string{"1", "100"}})
	server.AddUser(mockUser{ID: "4", Username: "erin"})
	server.AddPost("100", mockPost{ID: "11", Likers: []string{"1", "4"}})
}

func cachedAccount(name string) *auth.Account {
	return &auth.Account{
		Username:  name,
		Password:  "pw",
		SessionID: "sess-" + name,
		CSRFToken: "csrf-" + name,
		UserID:    name + "-id",
	}
}

func TestEndToEndCrawlRotatesOnRejectedRequests(t *testing.T) {
	server := NewMockInstagramServer(t)
	seedMockGraph(server)
	server.SetError("sess-scout", "/api/v1/users/2/info/", http.StatusBadRequest)

	cfg := testConfig(t, "scout,pw", "backup,pw")
	cfg.Instagram.BaseURL = server.URL()
	cfg.Instagram.Transport = config.TransportStd
	cfg.Crawl.GhostLikes = 1
	cfg.Crawl.BadRequestThreshold = 1

	manager := auth.NewManagerWithStores(auth.NewMockStore(cachedAccount("scout"), cachedAccount("backup")))
	display := &recordingDisplay{}
	r := New(cfg, logger.NewTestLogger(), Options{Manager: manager, Display: display})

	g, err := r.Run(context.Background(), "alice", RunOptions{})
	require.NoError(t, err)

	assert.False(t, g.HasPending())
	assert.ElementsMatch(t, []graph.Edge{{From: "1", To: "2"}, {From: "2", To: "1"}, {From: "3", To: "1"}}, g.Edges())

	erin, ok := g.Node("4")
	require.True(t, ok)
	assert.True(t, erin.IsGhost)
	assert.Equal(t, graph.Skipped, erin.Status)
	assert.Equal(t, "erin", erin.Nickname)
	bob, _ := g.Node("1")
	assert.Equal(t, 1, bob.LikeCount)

	// carol was rejected for scout and picked up by backup
	assert.Contains(t, server.Requests("sess-scout"), "/api/v1/users/2/info/")
	assert.Contains(t, server.Requests("sess-backup"), "/api/v1/users/2/info/")
	assert.NotContains(t, server.Requests("sess-backup"), "/api/v1/users/1/info/")
	assert.Contains(t, display.events, crawl.EventRotated)
	assert.Contains(t, display.events, crawl.EventNodeFailed)
	assert.Empty(t, server.Requests(""), "every request carries a session")
	assert.Equal(t, len(server.Requests("sess-scout"))+len(server.Requests("sess-backup")), server.GetRequestCount())
}

func TestEndToEndPopularNodesSkipEdgeScan(t *testing.T) {
	server := NewMockInstagramServer(t)
	seedMockGraph(server)
	server.AddUser(mockUser{ID: "1", Username: "bob", Followers: 50000, Followees: []string{"2"}})

	cfg := testConfig(t, "scout,pw")
	cfg.Instagram.BaseURL = server.URL()
	cfg.Instagram.Transport = config.TransportStd
	cfg.Crawl.StarFollowers = 10000

	manager := auth.NewManagerWithStores(auth.NewMockStore(cachedAccount("scout")))
	r := New(cfg, nil, Options{Manager: manager})

	g, err := r.Run(context.Background(), "alice", RunOptions{})
	require.NoError(t, err)

	bob, ok := g.Node("1")
	require.True(t, ok)
	assert.True(t, bob.IsPopular)
	assert.Equal(t, graph.Resolved, bob.Status)
	assert.NotContains(t, server.Requests("sess-scout"), "/api/v1/friendships/1/following/")
	assert.ElementsMatch(t, []graph.Edge{{From: "2", To: "1"}, {From: "3", To: "1"}}, g.Edges())
}
