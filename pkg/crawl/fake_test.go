package crawl

import (
	"context"
	"iter"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/instagram"
	"igcrawler/pkg/session"
)

type likedPost struct {
	post   instagram.Post
	likers []string
}

// fakeFetcher serves a scripted social network
type fakeFetcher struct {
	account   string
	profiles  map[string]instagram.Profile
	followees map[string][]string
	followers map[string][]string
	posts     []likedPost

	// failures by node id, returned by Profile
	fail map[string]error
	// rotateOn makes Profile advance creds and report a rotation
	rotateOn string
	creds    *fakeCreds

	profileCalls  map[string]int
	followeeCalls map[string]int
	likerCalls    []string
}

func newFakeFetcher(account string) *fakeFetcher {
	return &fakeFetcher{
		account:       account,
		profiles:      make(map[string]instagram.Profile),
		followees:     make(map[string][]string),
		followers:     make(map[string][]string),
		fail:          make(map[string]error),
		profileCalls:  make(map[string]int),
		followeeCalls: make(map[string]int),
	}
}

// share makes f serve the same network as other
func (f *fakeFetcher) share(other *fakeFetcher) *fakeFetcher {
	f.profiles = other.profiles
	f.followees = other.followees
	f.followers = other.followers
	f.posts = other.posts
	return f
}

func (f *fakeFetcher) addProfile(id, name string, followers int) {
	f.profiles[id] = instagram.Profile{ID: id, Username: name, FollowerCount: followers}
}

func (f *fakeFetcher) Account() string { return f.account }

func (f *fakeFetcher) Profile(ctx context.Context, ref instagram.UserRef) (*instagram.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := ref.ID
	if id == "" {
		for pid, p := range f.profiles {
			if p.Username == ref.Username {
				id = pid
			}
		}
	}
	f.profileCalls[id]++

	if f.rotateOn != "" && id == f.rotateOn {
		f.creds.pos++
		return nil, errs.Wrap(errs.KindRotated, f.account, errs.New(errs.KindBlocked, "profile", "blocked"))
	}
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, errs.New(errs.KindTransient, "profile", "not found")
	}
	return &p, nil
}

func refs(ids []string, profiles map[string]instagram.Profile) iter.Seq2[instagram.UserRef, error] {
	return func(yield func(instagram.UserRef, error) bool) {
		for _, id := range ids {
			if !yield(instagram.UserRef{ID: id, Username: profiles[id].Username}, nil) {
				return
			}
		}
	}
}

func (f *fakeFetcher) Followees(ctx context.Context, id string) iter.Seq2[instagram.UserRef, error] {
	f.followeeCalls[id]++
	return refs(f.followees[id], f.profiles)
}

func (f *fakeFetcher) Followers(ctx context.Context, id string) iter.Seq2[instagram.UserRef, error] {
	return refs(f.followers[id], f.profiles)
}

func (f *fakeFetcher) Posts(ctx context.Context, id string) iter.Seq2[instagram.Post, error] {
	return func(yield func(instagram.Post, error) bool) {
		for _, p := range f.posts {
			if !yield(p.post, nil) {
				return
			}
		}
	}
}

func (f *fakeFetcher) Likers(ctx context.Context, post instagram.Post) iter.Seq2[instagram.UserRef, error] {
	f.likerCalls = append(f.likerCalls, post.ID)
	for _, p := range f.posts {
		if p.post.ID == post.ID {
			return refs(p.likers, f.profiles)
		}
	}
	return refs(nil, f.profiles)
}

// fakeCreds is a credential pool over fixed fetchers
type fakeCreds struct {
	sessions []*fakeFetcher
	pos      int
	advances int
}

func newFakeCreds(sessions ...*fakeFetcher) *fakeCreds {
	c := &fakeCreds{sessions: sessions}
	for _, s := range sessions {
		s.creds = c
	}
	return c
}

func (c *fakeCreds) Current() (session.Fetcher, error) {
	if c.pos >= len(c.sessions) {
		return nil, errs.ErrCredentialsExhausted
	}
	return c.sessions[c.pos], nil
}

func (c *fakeCreds) Advance() (session.Fetcher, error) {
	c.advances++
	if c.pos < len(c.sessions) {
		c.pos++
	}
	return c.Current()
}

// memStore records every checkpoint
type memStore struct {
	saves int
	last  *graph.Graph
	err   error
}

func (s *memStore) Save(ctx context.Context, g *graph.Graph) error {
	if s.err != nil {
		return s.err
	}
	s.saves++
	s.last = g.Clone()
	return nil
}

func rejected() error {
	return &errs.Error{Kind: errs.KindRejected, Op: "profile", Code: 400, Message: "bad request"}
}
