// Package gitlab provides types, interfaces, and helpers for working with a
// GitLab-style project management REST API.
//
// # Overview
//
// The gitlab package defines the public contract of the client: the
// configuration, the generic ResourceClient operation set (List, Get,
// Create, Update, Remove and custom operations), the Transport abstraction
// and the normalized Error. A concrete implementation is provided by the
// gitlabclient package:
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
//	  cli, err := gitlabclient.New(ctx, &gitlab.Config{
//	    APIEndpoint: "https://gitlab.com/api/v4",
//	    Token:       "glpat-...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  projects, err := cli.Projects().List(ctx, nil, gitlab.NewListOptions().WithPerPage(1))
//	  if err != nil { log.Fatal(err) }
//	  _ = projects
//	}
//
// # Errors
//
// Every failed call returns an error wrapping exactly one *Error. Its Kind
// tells the three failure universes apart:
//
//   - KindHTTPRequest: no HTTP response was obtained (StatusCode is 0).
//   - KindJSONResponseFormat: the body did not decode, whatever the status.
//   - KindAPI: a decodable body with a non-2xx status.
//
// Use AsError or errors.As to inspect it. Get is the only operation that
// turns a 404 into a successful nil result.
//
// # Concurrency
//
// Clients are immutable after construction and safe for concurrent use.
// Go runs a call in its own goroutine and delivers a single Result.
package gitlab
