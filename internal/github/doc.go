// Package github provides a thin client for the GitHub REST API.
//
// All requests run through the shared outbound client pool, which injects
// the acting principal's bearer token and retries once after a 401.
//
// Example usage:
//
//	client := github.NewClient(pool)
//	repos, err := client.ListRepos(ctx, 30)
//	if err != nil {
//	    var reqErr *httpclient.RequestError
//	    if errors.As(err, &reqErr) {
//	        fmt.Println(reqErr.UserMessage())
//	    }
//	}
package github
