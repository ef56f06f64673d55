// Package crawl reconstructs the social graph around a target account.
//
// A Machine owns the graph and applies fetched data to it in three
// steps: Seed collects the target's followers and followees, then
// SampleEngagement tallies who liked the target's posts and promotes
// frequent likers to ghost nodes, and finally ResolvePass fetches follow
// counts and followee edges for every unresolved node.
//
// A Driver repeats resolution passes across the sessions of a credential
// pool until no node is left unresolved or the pool is exhausted. The
// graph is checkpointed after every resolved node.
package crawl
