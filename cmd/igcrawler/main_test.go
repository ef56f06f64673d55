package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcrawler/pkg/checkpoint"
	"igcrawler/pkg/graph"
)

func TestMaskAccounts(t *testing.T) {
	masked := maskAccounts([]string{"scout,hunter2", "bob,pw,JBSWY3DPEHPK3PXP", "broken"})
	assert.Equal(t, []string{"scout,********", "bob,********,********", "(invalid)"}, masked)
}

func TestCrawlFlagsOnlyCarriesChangedFlags(t *testing.T) {
	t.Cleanup(func() { credentialPairs = nil })

	require.NoError(t, crawlCmd.Flags().Parse([]string{
		"--max-followees", "50",
		"--total-block-budget", "5m",
		"--checkpoint-backend", "sqlite",
		"--credentials", "scout,pw",
	}))

	flags := crawlFlags(crawlCmd)
	assert.Equal(t, 50, flags["max-followees"])
	assert.Equal(t, 5*time.Minute, flags["total-block-budget"])
	assert.Equal(t, "sqlite", flags["checkpoint-backend"])
	assert.Equal(t, []string{"scout,pw"}, flags["credentials"])

	assert.NotContains(t, flags, "star-followers")
	assert.NotContains(t, flags, "ghost-likes")
	assert.NotContains(t, flags, "tui")
}

func TestCommandsAreRegistered(t *testing.T) {
	for _, name := range []string{"crawl", "status", "auth", "config"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestLoadStatusGraphReadsBackup(t *testing.T) {
	ctx := context.Background()
	store, err := checkpoint.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = loadStatusGraph(ctx, store, "alice", true)
	assert.ErrorContains(t, err, "no backup for @alice")

	old := graph.New("alice", "100")
	old.AddNode(graph.Node{ID: "1", Nickname: "bob"})
	require.NoError(t, store.Save(ctx, old))
	require.NoError(t, store.Backup(ctx, "alice"))
	require.NoError(t, store.Save(ctx, graph.New("alice", "100")))

	live, err := loadStatusGraph(ctx, store, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, 0, live.Len())

	backup, err := loadStatusGraph(ctx, store, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, 1, backup.Len())
}
