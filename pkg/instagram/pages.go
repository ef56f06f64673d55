package instagram

import (
	"context"
	"net/http"

	errs "igcrawler/pkg/errors"
)

// ProfileByUsername fetches a profile through the public web profile endpoint
func (c *Client) ProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	var resp webProfileResponse
	if err := c.getJSON(ctx, "profile", profileURL(c.baseURL, username), &resp); err != nil {
		return nil, err
	}
	if resp.RequiresToLogin {
		return nil, &errs.Error{Kind: errs.KindTransient, Op: "profile", Message: "login required to view " + username, Code: http.StatusUnauthorized}
	}
	u := resp.Data.User
	if u == nil {
		return nil, &errs.Error{Kind: errs.KindTransient, Op: "profile", Message: "profile " + username + " not found", Code: http.StatusNotFound}
	}
	return &Profile{
		ID:            u.ID,
		Username:      u.Username,
		FollowerCount: u.FollowedBy.Count,
		FolloweeCount: u.Follow.Count,
		IsPrivate:     u.IsPrivate,
	}, nil
}

// ProfileByID fetches a profile by account id
func (c *Client) ProfileByID(ctx context.Context, userID string) (*Profile, error) {
	var resp userInfoResponse
	if err := c.getJSON(ctx, "profile", userInfoURL(c.baseURL, userID), &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &errs.Error{Kind: errs.KindTransient, Op: "profile", Message: "user " + userID + " not found", Code: http.StatusNotFound}
	}
	return &Profile{
		ID:            string(resp.User.PK),
		Username:      resp.User.Username,
		FollowerCount: resp.User.FollowerCount,
		FolloweeCount: resp.User.FollowingCount,
		IsPrivate:     resp.User.IsPrivate,
	}, nil
}

// FollowersPage fetches one page of the accounts following userID
func (c *Client) FollowersPage(ctx context.Context, userID, cursor string) (*UserPage, error) {
	return c.friendshipsPage(ctx, "followers", userID, cursor)
}

// FolloweesPage fetches one page of the accounts userID follows
func (c *Client) FolloweesPage(ctx context.Context, userID, cursor string) (*UserPage, error) {
	return c.friendshipsPage(ctx, "following", userID, cursor)
}

func (c *Client) friendshipsPage(ctx context.Context, direction, userID, cursor string) (*UserPage, error) {
	var resp friendshipsResponse
	if err := c.getJSON(ctx, direction, friendshipsURL(c.baseURL, userID, direction, cursor), &resp); err != nil {
		return nil, err
	}
	page := &UserPage{
		Users:      make([]UserRef, 0, len(resp.Users)),
		NextCursor: string(resp.NextMaxID),
	}
	for _, u := range resp.Users {
		page.Users = append(page.Users, UserRef{ID: string(u.PK), Username: u.Username})
	}
	return page, nil
}

// PostsPage fetches one page of userID's feed
func (c *Client) PostsPage(ctx context.Context, userID, cursor string) (*PostPage, error) {
	var resp feedResponse
	if err := c.getJSON(ctx, "posts", feedURL(c.baseURL, userID, cursor), &resp); err != nil {
		return nil, err
	}
	page := &PostPage{Posts: make([]Post, 0, len(resp.Items))}
	for _, item := range resp.Items {
		page.Posts = append(page.Posts, Post{ID: string(item.PK), Shortcode: item.Code, LikeCount: item.LikeCount})
	}
	if resp.MoreAvailable {
		page.NextCursor = string(resp.NextMaxID)
	}
	return page, nil
}

// Likers fetches the accounts that liked a post. The endpoint is not paginated.
func (c *Client) Likers(ctx context.Context, mediaID string) ([]UserRef, error) {
	var resp likersResponse
	if err := c.getJSON(ctx, "likers", likersURL(c.baseURL, mediaID), &resp); err != nil {
		return nil, err
	}
	users := make([]UserRef, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, UserRef{ID: string(u.PK), Username: u.Username})
	}
	return users, nil
}

