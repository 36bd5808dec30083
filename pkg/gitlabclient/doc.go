// Package gitlabclient is the entry point for constructing a GitLab REST
// API client that implements the gitlab.Client interface.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
//	  "github.com/fivetwenty-io/gitlab-client/pkg/gitlabclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := gitlabclient.NewWithToken(ctx, "gitlab.com/api/v4", "glpat-...")
//	  if err != nil { log.Fatal(err) }
//
//	  project, err := cli.Projects().Get(ctx, gitlab.Params{"id": "group/project"})
//	  if err != nil { log.Fatal(err) }
//	  if project == nil { log.Print("no such project") }
//	}
//
// # Tuning
//
// Timeouts, retries, logging and response caching are set on gitlab.Config:
//
//	cli, err := gitlabclient.New(ctx, &gitlab.Config{
//	  APIEndpoint:    "https://gitlab.example.com/api/v4",
//	  Token:          token,
//	  RequestTimeout: 10 * time.Second,
//	  RetryMax:       2,
//	  Cache:          gitlab.NewMemoryCache(500),
//	})
package gitlabclient
