// Package session binds an authenticated instagram client to its rate
// controller and exposes the listings the crawl consumes as lazy sequences.
package session

import (
	"context"
	"iter"

	"igcrawler/pkg/instagram"
	"igcrawler/pkg/ratelimit"
)

// Fetcher is the capability one credential gives the crawl.
//
// Each listing call starts a fresh sequence from the first page. A
// sequence yields at most one error, as its last element.
type Fetcher interface {
	Account() string
	Profile(ctx context.Context, ref instagram.UserRef) (*instagram.Profile, error)
	Followers(ctx context.Context, userID string) iter.Seq2[instagram.UserRef, error]
	Followees(ctx context.Context, userID string) iter.Seq2[instagram.UserRef, error]
	Posts(ctx context.Context, userID string) iter.Seq2[instagram.Post, error]
	Likers(ctx context.Context, post instagram.Post) iter.Seq2[instagram.UserRef, error]
}

// PageClient is the page-level API a Session paces
type PageClient interface {
	ProfileByUsername(ctx context.Context, username string) (*instagram.Profile, error)
	ProfileByID(ctx context.Context, userID string) (*instagram.Profile, error)
	FollowersPage(ctx context.Context, userID, cursor string) (*instagram.UserPage, error)
	FolloweesPage(ctx context.Context, userID, cursor string) (*instagram.UserPage, error)
	PostsPage(ctx context.Context, userID, cursor string) (*instagram.PostPage, error)
	Likers(ctx context.Context, mediaID string) ([]instagram.UserRef, error)
}

// Session routes every request of one account through its controller
type Session struct {
	account string
	client  PageClient
	ctrl    *ratelimit.Controller
}

func New(account string, client PageClient, ctrl *ratelimit.Controller) *Session {
	return &Session{account: account, client: client, ctrl: ctrl}
}

func (s *Session) Account() string { return s.account }

// Stats reports the session's rate controller counters
func (s *Session) Stats() ratelimit.Stats { return s.ctrl.Stats() }

// Profile looks ref up by id when known, by username otherwise
func (s *Session) Profile(ctx context.Context, ref instagram.UserRef) (*instagram.Profile, error) {
	return ratelimit.DoWithResult(ctx, s.ctrl, func(ctx context.Context) (*instagram.Profile, error) {
		if ref.ID != "" {
			return s.client.ProfileByID(ctx, ref.ID)
		}
		return s.client.ProfileByUsername(ctx, ref.Username)
	})
}

func (s *Session) Followers(ctx context.Context, userID string) iter.Seq2[instagram.UserRef, error] {
	return paginate(ctx, s.ctrl, func(ctx context.Context, cursor string) ([]instagram.UserRef, string, error) {
		page, err := s.client.FollowersPage(ctx, userID, cursor)
		if err != nil {
			return nil, "", err
		}
		return page.Users, page.NextCursor, nil
	})
}

func (s *Session) Followees(ctx context.Context, userID string) iter.Seq2[instagram.UserRef, error] {
	return paginate(ctx, s.ctrl, func(ctx context.Context, cursor string) ([]instagram.UserRef, string, error) {
		page, err := s.client.FolloweesPage(ctx, userID, cursor)
		if err != nil {
			return nil, "", err
		}
		return page.Users, page.NextCursor, nil
	})
}

func (s *Session) Posts(ctx context.Context, userID string) iter.Seq2[instagram.Post, error] {
	return paginate(ctx, s.ctrl, func(ctx context.Context, cursor string) ([]instagram.Post, string, error) {
		page, err := s.client.PostsPage(ctx, userID, cursor)
		if err != nil {
			return nil, "", err
		}
		return page.Posts, page.NextCursor, nil
	})
}

func (s *Session) Likers(ctx context.Context, post instagram.Post) iter.Seq2[instagram.UserRef, error] {
	return paginate(ctx, s.ctrl, func(ctx context.Context, cursor string) ([]instagram.UserRef, string, error) {
		users, err := s.client.Likers(ctx, post.ID)
		return users, "", err
	})
}

type pageFunc[T any] func(ctx context.Context, cursor string) ([]T, string, error)

type page[T any] struct {
	items []T
	next  string
}

// paginate turns a page fetcher into a sequence. The cursor lives in the
// closure, so every range over the result starts from the first page.
func paginate[T any](ctx context.Context, ctrl *ratelimit.Controller, fetch pageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		cursor := ""
		for {
			p, err := ratelimit.DoWithResult(ctx, ctrl, func(ctx context.Context) (page[T], error) {
				items, next, err := fetch(ctx, cursor)
				return page[T]{items: items, next: next}, err
			})
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}

			for _, item := range p.items {
				if !yield(item, nil) {
					return
				}
			}

			if p.next == "" || p.next == cursor {
				return
			}
			cursor = p.next
		}
	}
}
