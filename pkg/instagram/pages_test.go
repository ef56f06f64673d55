package instagram

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcrawler/pkg/errors"
)

func TestProfileByUsername(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/web_profile_info/", r.URL.Path)
		switch r.URL.Query().Get("username") {
		case "target":
			w.Write([]byte(`{"data":{"user":{"id":"100","username":"target","edge_followed_by":{"count":6000},"edge_follow":{"count":12}}},"status":"ok"}`))
		case "private":
			w.Write([]byte(`{"requires_to_login":true}`))
		default:
			w.Write([]byte(`{"data":{"user":null},"status":"ok"}`))
		}
	}))

	p, err := client.ProfileByUsername(context.Background(), "target")
	require.NoError(t, err)
	assert.Equal(t, "100", p.ID)
	assert.Equal(t, 6000, p.FollowerCount)
	assert.Equal(t, 12, p.FolloweeCount)

	_, err = client.ProfileByUsername(context.Background(), "private")
	assert.Equal(t, errs.KindTransient, errs.KindOf(err))

	_, err = client.ProfileByUsername(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFriendshipsPagination(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/friendships/100/following/", r.URL.Path)
		assert.Equal(t, fmt.Sprint(PageSize), r.URL.Query().Get("count"))
		switch r.URL.Query().Get("max_id") {
		case "":
			w.Write([]byte(`{"users":[{"pk":1,"username":"a"},{"pk":"2","username":"b"}],"next_max_id":"50","status":"ok"}`))
		case "50":
			w.Write([]byte(`{"users":[{"pk":3,"username":"c"}],"next_max_id":null,"status":"ok"}`))
		}
	}))

	first, err := client.FolloweesPage(context.Background(), "100", "")
	require.NoError(t, err)
	assert.Equal(t, []UserRef{{ID: "1", Username: "a"}, {ID: "2", Username: "b"}}, first.Users)
	assert.Equal(t, "50", first.NextCursor)

	second, err := client.FolloweesPage(context.Background(), "100", first.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, []UserRef{{ID: "3", Username: "c"}}, second.Users)
	assert.Empty(t, second.NextCursor)
}

func TestFollowersPageUsesFollowersPath(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/friendships/100/followers/", r.URL.Path)
		w.Write([]byte(`{"users":[],"status":"ok"}`))
	}))

	page, err := client.FollowersPage(context.Background(), "100", "")
	require.NoError(t, err)
	assert.Empty(t, page.Users)
}

func TestPostsPage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("max_id") == "" {
			w.Write([]byte(`{"items":[{"pk":11,"code":"A1","like_count":40},{"pk":12,"code":"A2","like_count":900}],"more_available":true,"next_max_id":"12"}`))
			return
		}
		w.Write([]byte(`{"items":[{"pk":13,"code":"A3","like_count":5}],"more_available":false,"next_max_id":"13"}`))
	}))

	page, err := client.PostsPage(context.Background(), "100", "")
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, Post{ID: "11", Shortcode: "A1", LikeCount: 40}, page.Posts[0])
	assert.Equal(t, "12", page.NextCursor)

	last, err := client.PostsPage(context.Background(), "100", "12")
	require.NoError(t, err)
	assert.Empty(t, last.NextCursor, "no cursor once more_available is false")
}

func TestLikers(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/media/11/likers/", r.URL.Path)
		w.Write([]byte(`{"users":[{"pk":1,"username":"a"},{"pk":9,"username":"z"}],"status":"ok"}`))
	}))

	users, err := client.Likers(context.Background(), "11")
	require.NoError(t, err)
	assert.Equal(t, []UserRef{{ID: "1", Username: "a"}, {ID: "9", Username: "z"}}, users)
}

func TestPageErrorsKeepTheirKind(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/media/1/likers/":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"bad","status":"fail"}`))
		}
	}))

	_, err := client.Likers(context.Background(), "1")
	assert.True(t, errs.IsBlocked(err))

	_, err = client.FollowersPage(context.Background(), "1", "")
	assert.True(t, errs.IsRejected(err))
}
