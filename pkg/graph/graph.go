// Package graph holds the crawl's social graph: account nodes with their
// crawl status, and the directed followee edges between known accounts.
//
// The Graph is the unit of persistence. It is owned by a single crawl
// goroutine and is not safe for concurrent use.
package graph

import (
	"encoding/json"
	"fmt"
)

// Status is a node's progress through follow-graph resolution
type Status string

const (
	Unresolved Status = "unresolved"
	Resolved   Status = "resolved"
	// Skipped nodes are never resolved through the follow graph
	Skipped Status = "skipped"
)

// Phase records how far the crawl got before resolution started
type Phase string

const (
	PhaseSeeded  Phase = "seeded"
	PhaseSampled Phase = "sampled"
)

// Node is one account. Identity is by ID alone.
type Node struct {
	ID            string `json:"id"`
	Nickname      string `json:"nickname"`
	IsGhost       bool   `json:"is_ghost,omitempty"`
	FollowerCount *int   `json:"follower_count,omitempty"`
	FolloweeCount *int   `json:"followee_count,omitempty"`
	IsPopular     bool   `json:"is_popular,omitempty"`
	LikeCount     int    `json:"like_count"`
	Status        Status `json:"status"`
}

// Edge is a directed "From follows To" pair
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is an insertion-ordered node set plus an edge list
type Graph struct {
	Target   string
	TargetID string
	Phase    Phase

	nodes []*Node
	index map[string]*Node
	edges []Edge
}

// New returns an empty graph around target
func New(target, targetID string) *Graph {
	return &Graph{
		Target:   target,
		TargetID: targetID,
		index:    make(map[string]*Node),
	}
}

// AddNode inserts n unless a node with the same ID exists.
// It reports whether the node was added.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.index[n.ID]; ok {
		return false
	}
	if n.Status == "" {
		n.Status = Unresolved
	}
	node := &n
	g.nodes = append(g.nodes, node)
	g.index[n.ID] = node
	return true
}

// Node looks up a node by id. The returned pointer aliases graph state.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Nodes returns every node in insertion order
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Pending returns the nodes still awaiting follow-graph resolution
func (g *Graph) Pending() []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Status == Unresolved && !n.IsGhost {
			out = append(out, n)
		}
	}
	return out
}

// HasPending reports whether any node is awaiting resolution
func (g *Graph) HasPending() bool {
	return len(g.Pending()) > 0
}

// AddEdge appends from -> to. Both endpoints must already be nodes.
func (g *Graph) AddEdge(from, to string) error {
	if !g.Has(from) {
		return fmt.Errorf("edge source %s is not a node", from)
	}
	if !g.Has(to) {
		return fmt.Errorf("edge target %s is not a node", to)
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	return nil
}

// Edges returns a copy of the edge list
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// OutDegree counts edges leaving id
func (g *Graph) OutDegree(id string) int {
	n := 0
	for _, e := range g.edges {
		if e.From == id {
			n++
		}
	}
	return n
}

func (g *Graph) Len() int { return len(g.nodes) }

// Stats summarises node statuses
type Stats struct {
	Nodes      int `json:"nodes"`
	Unresolved int `json:"unresolved"`
	Resolved   int `json:"resolved"`
	Skipped    int `json:"skipped"`
	Ghosts     int `json:"ghosts"`
	Popular    int `json:"popular"`
	Edges      int `json:"edges"`
}

func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.nodes), Edges: len(g.edges)}
	for _, n := range g.nodes {
		switch n.Status {
		case Unresolved:
			s.Unresolved++
		case Resolved:
			s.Resolved++
		case Skipped:
			s.Skipped++
		}
		if n.IsGhost {
			s.Ghosts++
		}
		if n.IsPopular {
			s.Popular++
		}
	}
	return s
}

type wireGraph struct {
	Target   string `json:"target"`
	TargetID string `json:"target_id"`
	Phase    Phase  `json:"phase"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
}

// MarshalJSON writes a full snapshot of the graph
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := wireGraph{
		Target:   g.Target,
		TargetID: g.TargetID,
		Phase:    g.Phase,
		Nodes:    make([]Node, 0, len(g.nodes)),
		Edges:    g.edges,
	}
	if w.Edges == nil {
		w.Edges = []Edge{}
	}
	for _, n := range g.nodes {
		w.Nodes = append(w.Nodes, *n)
	}
	return json.Marshal(w)
}

// UnmarshalJSON replaces g with the decoded snapshot
func (g *Graph) UnmarshalJSON(data []byte) error {
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	fresh := New(w.Target, w.TargetID)
	fresh.Phase = w.Phase
	for _, n := range w.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node without id")
		}
		fresh.AddNode(n)
	}
	for _, e := range w.Edges {
		if err := fresh.AddEdge(e.From, e.To); err != nil {
			return err
		}
	}

	*g = *fresh
	return nil
}

// Clone returns a deep copy that shares no state with g
func (g *Graph) Clone() *Graph {
	c := New(g.Target, g.TargetID)
	c.Phase = g.Phase
	for _, n := range g.nodes {
		cp := *n
		if n.FollowerCount != nil {
			v := *n.FollowerCount
			cp.FollowerCount = &v
		}
		if n.FolloweeCount != nil {
			v := *n.FolloweeCount
			cp.FolloweeCount = &v
		}
		c.AddNode(cp)
	}
	c.edges = g.Edges()
	return c
}
