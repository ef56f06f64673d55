package crawl

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/graph"
	"igcrawler/pkg/instagram"
	"igcrawler/pkg/logger"
	"igcrawler/pkg/session"
)

// Checkpointer persists a snapshot of the graph
type Checkpointer interface {
	Save(ctx context.Context, g *graph.Graph) error
}

// PassResult summarises one resolution pass
type PassResult struct {
	Pass        int
	Account     string
	Resolved    int
	Failed      int
	BadRequests int
	// Halted is set when the bad request threshold ended the pass
	Halted bool
	// Rotated is set when the rate controller abandoned the session
	Rotated    bool
	Unresolved int
}

// Machine is the crawl state machine over one graph
type Machine struct {
	g        *graph.Graph
	budgets  Budgets
	store    Checkpointer
	log      logger.Logger
	observer Observer
}

// NewMachine resumes work on g. A nil store disables checkpointing.
func NewMachine(g *graph.Graph, budgets Budgets, store Checkpointer, log logger.Logger, observer Observer) *Machine {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Machine{g: g, budgets: budgets, store: store, log: log, observer: observer}
}

func (m *Machine) Graph() *graph.Graph { return m.g }

// Save checkpoints the graph
func (m *Machine) Save(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, m.g); err != nil {
		return fmt.Errorf("checkpoint %s: %w", m.g.Target, err)
	}
	return nil
}

// Seed builds a fresh graph from the target's followees and followers.
// Every distinct account becomes an unresolved node.
func Seed(ctx context.Context, f session.Fetcher, target string) (*graph.Graph, error) {
	profile, err := f.Profile(ctx, instagram.UserRef{Username: target})
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", target, err)
	}

	g := graph.New(target, profile.ID)
	g.Phase = graph.PhaseSeeded

	for _, list := range []func(context.Context, string) iter.Seq2[instagram.UserRef, error]{
		f.Followees, f.Followers,
	} {
		for ref, err := range list(ctx, profile.ID) {
			if err != nil {
				return nil, fmt.Errorf("seed %s: %w", target, err)
			}
			if ref.ID == "" || ref.ID == profile.ID {
				continue
			}
			g.AddNode(graph.Node{ID: ref.ID, Nickname: ref.Username})
		}
	}
	return g, nil
}

// SampleEngagement tallies the likers of the target's posts. Every node
// gets its tally as LikeCount; likers outside the graph whose tally
// reaches GhostLikes are added as skipped ghost nodes.
func (m *Machine) SampleEngagement(ctx context.Context, f session.Fetcher) error {
	tally := make(map[string]int)
	names := make(map[string]string)
	var order []string
	total := 0

	for post, err := range f.Posts(ctx, m.g.TargetID) {
		if err != nil {
			return fmt.Errorf("sample %s: %w", m.g.Target, err)
		}
		if post.LikeCount >= m.budgets.LikesMaxAmount {
			continue
		}

		for liker, err := range f.Likers(ctx, post) {
			if err != nil {
				return fmt.Errorf("sample %s: %w", m.g.Target, err)
			}
			if liker.ID == "" {
				continue
			}
			if _, seen := tally[liker.ID]; !seen {
				order = append(order, liker.ID)
				names[liker.ID] = liker.Username
			}
			tally[liker.ID]++
			total++
		}

		if total > m.budgets.LikesThreshold {
			break
		}
	}

	for _, n := range m.g.Nodes() {
		n.LikeCount = tally[n.ID]
	}

	ghosts := 0
	for _, id := range order {
		likes := tally[id]
		if likes < m.budgets.GhostLikes || m.g.Has(id) || m.isTarget(id, names[id]) {
			continue
		}
		m.g.AddNode(graph.Node{
			ID:        id,
			Nickname:  names[id],
			IsGhost:   true,
			LikeCount: likes,
			Status:    graph.Skipped,
		})
		ghosts++
	}

	m.g.Phase = graph.PhaseSampled
	m.log.InfoWithFields("engagement sampled", map[string]interface{}{
		"likes":   total,
		"likers":  len(tally),
		"ghosts":  ghosts,
		"account": f.Account(),
	})
	return nil
}

func (m *Machine) isTarget(id, nickname string) bool {
	if id == m.g.TargetID {
		return true
	}
	return nickname != "" && strings.EqualFold(nickname, m.g.Target)
}

// ResolvePass resolves every unresolved, non-ghost node with f until the
// bad request threshold is reached. Node failures leave the node
// unresolved. The pass stops early when the session is rotated away, and
// fails on credential exhaustion, cancellation or a checkpoint error.
func (m *Machine) ResolvePass(ctx context.Context, f session.Fetcher, pass int) (PassResult, error) {
	res := PassResult{Pass: pass, Account: f.Account()}
	log := m.log.WithFields(map[string]interface{}{"pass": pass, "account": res.Account})

	for _, n := range m.g.Pending() {
		if res.BadRequests >= m.budgets.BadRequestThreshold {
			res.Halted = true
			break
		}

		err := m.resolve(ctx, f, n)
		switch {
		case err == nil:
			res.Resolved++
			if err := m.Save(ctx); err != nil {
				return m.finish(res), err
			}
			m.observer.Observe(Event{Kind: EventNodeResolved, Account: res.Account, Pass: pass, Node: n, Stats: m.g.Stats()})
			continue

		case errs.IsRotated(err):
			res.Rotated = true
			log.InfoWithFields("session rotated during pass", map[string]interface{}{"node": n.ID})
			return m.finish(res), nil

		case errs.IsExhausted(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return m.finish(res), err

		case errs.IsRejected(err):
			res.BadRequests++
			log.WithError(err).WarnWithFields("request rejected", map[string]interface{}{
				"node":         n.ID,
				"bad_requests": res.BadRequests,
			})
			if res.BadRequests >= m.budgets.BadRequestThreshold {
				res.Halted = true
			}

		default:
			res.Failed++
			log.WithError(err).WarnWithFields("node failed", map[string]interface{}{"node": n.ID})
		}

		m.observer.Observe(Event{Kind: EventNodeFailed, Account: res.Account, Pass: pass, Node: n, Err: err})
		if res.Halted {
			break
		}
	}

	return m.finish(res), nil
}

func (m *Machine) finish(res PassResult) PassResult {
	res.Unresolved = m.g.Stats().Unresolved
	return res
}

// resolve fetches n's counts and, unless n is popular, the edges from n
// to followees already in the graph. n is left unresolved on any error
// and no partial edge list is recorded.
func (m *Machine) resolve(ctx context.Context, f session.Fetcher, n *graph.Node) error {
	profile, err := f.Profile(ctx, instagram.UserRef{ID: n.ID, Username: n.Nickname})
	if err != nil {
		return err
	}

	followers, followees := profile.FollowerCount, profile.FolloweeCount
	n.FollowerCount = &followers
	n.FolloweeCount = &followees
	if n.Nickname == "" {
		n.Nickname = profile.Username
	}

	if followers > m.budgets.StarFollowers {
		n.IsPopular = true
		n.Status = graph.Resolved
		return nil
	}

	var linked []string
	scanned := 0
	for ref, err := range f.Followees(ctx, n.ID) {
		if err != nil {
			return err
		}
		if scanned == m.budgets.MaxFollowees {
			break
		}
		scanned++
		if ref.ID != "" && m.g.Has(ref.ID) {
			linked = append(linked, ref.ID)
		}
	}

	for _, to := range linked {
		if err := m.g.AddEdge(n.ID, to); err != nil {
			return err
		}
	}
	n.Status = graph.Resolved
	return nil
}
