// Package ratelimit paces the requests of one crawl session.
//
// A Window keeps the timestamps of recent requests. Before each request
// the Controller waits until the window has room; after a block signal
// (HTTP 429) it waits a duration that grows with the window's fill, then
// retries the same request.
//
// Block waits are charged to a BlockLedger. When the ledger reaches the
// total block budget it resets, and the controller asks its Rotator to
// move the pool to the next credential, returning a Rotated error to the
// caller. Whether ledgers are per session or shared across the run is
// chosen by handing each controller its own ledger or the same one:
//
//	ledger := ratelimit.NewBlockLedger() // shared: global scope
//	ctrl := ratelimit.NewController(ratelimit.Config{
//		Window:           11 * time.Minute,
//		Budget:           200,
//		Margin:           6 * time.Second,
//		TotalBlockBudget: 20 * time.Minute,
//	}, ledger, pool, log)
//
//	err := ctrl.Do(ctx, func(ctx context.Context) error {
//		return client.FetchPage(ctx, req)
//	})
package ratelimit
