// Package report renders the state of a crawl checkpoint as Markdown.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"igcrawler/pkg/graph"
)

// Options tunes the report
type Options struct {
	// TopLikers caps the likers table; 0 means 10
	TopLikers int
	// Updated is shown in the header when set
	Updated time.Time
}

// Write renders g to out. It returns the number of bytes rendered.
func Write(out io.Writer, g *graph.Graph, opts Options) (int, error) {
	if opts.TopLikers <= 0 {
		opts.TopLikers = 10
	}
	stats := g.Stats()
	md := markdown.NewMarkdown(out)

	writeHeader(md, g, stats, opts)
	writeStatus(md, stats)
	writeLikers(md, g, opts.TopLikers)
	writeNames(md, "Ghost Nodes", "No ghost nodes.", g, func(n *graph.Node) bool { return n.IsGhost })
	writeNames(md, "Popular Nodes", "No popular nodes.", g, func(n *graph.Node) bool { return n.IsPopular })

	return len(md.String()), md.Build()
}

func writeHeader(md *markdown.Markdown, g *graph.Graph, stats graph.Stats, opts Options) {
	md.H1("Crawl Report: " + g.Target)
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + g.Target + "`"},
		{"Target ID", g.TargetID},
		{"Phase", string(g.Phase)},
		{"State", stateText(stats)},
	}
	if !opts.Updated.IsZero() {
		rows = append(rows, []string{"Updated", opts.Updated.Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

func stateText(stats graph.Stats) string {
	if stats.Unresolved == 0 {
		return "✅ Complete"
	}
	return "⏳ In progress (" + strconv.Itoa(stats.Unresolved) + " unresolved)"
}

func writeStatus(md *markdown.Markdown, stats graph.Stats) {
	md.H2("Node Status")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"Resolved", strconv.Itoa(stats.Resolved)},
			{"Unresolved", strconv.Itoa(stats.Unresolved)},
			{"Skipped", strconv.Itoa(stats.Skipped)},
			{"Ghosts", strconv.Itoa(stats.Ghosts)},
			{"Popular", strconv.Itoa(stats.Popular)},
			{"**Nodes**", "**" + strconv.Itoa(stats.Nodes) + "**"},
			{"**Edges**", "**" + strconv.Itoa(stats.Edges) + "**"},
		},
	})
	md.PlainText("")

	if stats.Nodes > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Node Status"),
			piechart.WithShowData(true),
		)
		for _, s := range []struct {
			label string
			n     int
		}{
			{"Resolved", stats.Resolved},
			{"Unresolved", stats.Unresolved},
			{"Skipped", stats.Skipped},
		} {
			if s.n > 0 {
				chart.LabelAndIntValue(s.label, uint64(s.n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	if stats.Unresolved > 0 {
		md.Note(fmt.Sprintf("%d node(s) are still unresolved. Run the crawl again with --resume to continue.", stats.Unresolved))
	} else {
		md.Tip("Every node has been resolved.")
	}
	md.PlainText("")
}

func writeLikers(md *markdown.Markdown, g *graph.Graph, limit int) {
	md.H2("Top Likers")
	md.PlainText("")

	var likers []*graph.Node
	for _, n := range g.Nodes() {
		if n.LikeCount > 0 {
			likers = append(likers, n)
		}
	}
	if len(likers) == 0 {
		md.PlainText("No likes sampled.")
		md.PlainText("")
		return
	}

	slices.SortStableFunc(likers, func(a, b *graph.Node) int {
		return cmp.Compare(b.LikeCount, a.LikeCount)
	})
	if len(likers) > limit {
		likers = likers[:limit]
	}

	rows := make([][]string, 0, len(likers))
	for _, n := range likers {
		kind := "follow graph"
		if n.IsGhost {
			kind = "ghost"
		}
		rows = append(rows, []string{displayName(n), strconv.Itoa(n.LikeCount), kind})
	}
	md.Table(markdown.TableSet{Header: []string{"Account", "Likes", "Source"}, Rows: rows})
	md.PlainText("")
}

func writeNames(md *markdown.Markdown, title, empty string, g *graph.Graph, keep func(*graph.Node) bool) {
	md.H2(title)
	md.PlainText("")

	var names []string
	for _, n := range g.Nodes() {
		if keep(n) {
			names = append(names, displayName(n))
		}
	}
	if len(names) == 0 {
		md.PlainText(empty)
	} else {
		md.BulletList(names...)
	}
	md.PlainText("")
}

func displayName(n *graph.Node) string {
	if n.Nickname == "" {
		return n.ID
	}
	return n.Nickname
}
