// Package instagram implements the HTTP mechanics of a crawl session:
// login (with TOTP two-factor codes), profile lookups, and the paged
// follower, followee, feed and liker listings.
//
// Requests go through a Doer. StealthDoer uses a browser TLS fingerprint
// and header order; StdDoer is plain net/http.
//
// Every failure is an *errors.Error whose Kind tells the crawl how to react:
// 429 is Blocked, 400 is Rejected, login failures are AuthFailure, and
// everything else (network, 401/403 mid-crawl, 404, 5xx, bad JSON) is
// Transient.
//
//	doer, _ := instagram.NewDoer("stealth", 30*time.Second, "")
//	client := instagram.NewClient(doer, instagram.Options{Logger: log})
//	if _, err := client.Login(ctx, instagram.Credentials{Username: u, Password: p}); err != nil {
//		return err
//	}
//	page, err := client.FolloweesPage(ctx, userID, "")
package instagram
