package mocks

//go:generate mockgen -destination=transport.go -package=mocks github.com/fivetwenty-io/gitlab-client/pkg/gitlab Transport
