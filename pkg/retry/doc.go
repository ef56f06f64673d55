// Package retry provides context-aware waiting and backoff retries.
//
// Wait is the crawler's only sleep primitive. The rate controller uses it
// for the pre-request delay and the block wait, so cancelling the context
// ends either sleep at once.
//
// Do and DoWithResult retry login requests, where a network failure earns
// another try and an authentication failure does not:
//
//	sess, err := retry.DoWithResult(ctx, retry.LoginPolicy(3, log),
//		func(ctx context.Context) (*instagram.Session, error) {
//			return client.Login(ctx, creds)
//		})
package retry
