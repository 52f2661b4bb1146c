// Package service holds the business operations behind the HTTP API.
//
// Services depend on the repository interfaces and a realtime.Fanout only.
// Every mutation is committed to the store before anything is published,
// and publish outcomes are returned to the caller as realtime.Delivery
// values rather than errors: a failed notification never fails a request
// whose data already committed.
package service

import (
	"context"

	"github.com/lalith-99/pulsechat/internal/models"
)

// Directory lists every user's public profile.
type Directory interface {
	Directory(ctx context.Context) ([]models.Profile, error)
}
