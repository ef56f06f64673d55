package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcrawler/pkg/graph"
)

func crawled() *graph.Graph {
	g := graph.New("target", "100")
	g.Phase = graph.PhaseSampled
	g.AddNode(graph.Node{ID: "1", Nickname: "alice", LikeCount: 3, Status: graph.Resolved})
	g.AddNode(graph.Node{ID: "2", Nickname: "bob"})
	g.AddNode(graph.Node{ID: "3", Nickname: "carol", IsGhost: true, LikeCount: 10, Status: graph.Skipped})
	g.AddNode(graph.Node{ID: "4", Nickname: "star", IsPopular: true, Status: graph.Resolved})
	_ = g.AddEdge("1", "4")
	return g
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, crawled(), Options{})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, len(out), n)
	assert.Contains(t, out, "# Crawl Report: target")
	assert.Contains(t, out, "In progress (1 unresolved)")
	assert.Contains(t, out, "--resume")
	assert.Contains(t, out, "mermaid")
	assert.Contains(t, out, "- carol")
	assert.Contains(t, out, "- star")

	// carol out-likes alice
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("| carol")), bytes.Index(buf.Bytes(), []byte("| alice")))
}

func TestWriteReportLimitsLikers(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, crawled(), Options{TopLikers: 1})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "| carol")
	assert.NotContains(t, buf.String(), "| alice")
}

func TestWriteReportComplete(t *testing.T) {
	g := graph.New("target", "100")
	g.AddNode(graph.Node{ID: "1", Status: graph.Resolved})

	var buf bytes.Buffer
	_, err := Write(&buf, g, Options{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Complete")
	assert.Contains(t, out, "No likes sampled.")
	assert.Contains(t, out, "No ghost nodes.")
	assert.NotContains(t, out, "--resume")
}
