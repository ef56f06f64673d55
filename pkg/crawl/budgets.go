package crawl

import "igcrawler/pkg/config"

// Budgets bounds the cost of a crawl
type Budgets struct {
	// MaxFollowees is how many followees of one node are scanned for edges
	MaxFollowees int
	// StarFollowers is the follower count above which a node is popular
	StarFollowers int
	// BadRequestThreshold is how many Rejected requests end a pass
	BadRequestThreshold int
	// LikesMaxAmount skips posts with at least this many likes
	LikesMaxAmount int
	// LikesThreshold stops sampling once the tally exceeds it
	LikesThreshold int
	// GhostLikes is the minimum tally that promotes a liker to a ghost
	GhostLikes int
}

func DefaultBudgets() Budgets {
	return BudgetsFromConfig(config.DefaultConfig().Crawl)
}

func BudgetsFromConfig(c config.CrawlConfig) Budgets {
	return Budgets{
		MaxFollowees:        c.MaxFollowees,
		StarFollowers:       c.StarFollowers,
		BadRequestThreshold: c.BadRequestThreshold,
		LikesMaxAmount:      c.LikesMaxAmount,
		LikesThreshold:      c.LikesThreshold,
		GhostLikes:          c.GhostLikes,
	}
}
