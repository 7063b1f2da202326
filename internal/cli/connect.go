package cli

import (
	"context"
	"fmt"

	"github.com/vorvix/zato/internal/client"
	"github.com/vorvix/zato/internal/config"
	"github.com/vorvix/zato/internal/reconcile"
	"github.com/vorvix/zato/internal/registry"
)

// session bundles everything a command needs to talk to one cluster.
type session struct {
	client   *client.Client
	registry *registry.Registry
	mirror   *reconcile.Mirror
}

// connect builds the client, sanity-checks the server and ingests its
// operation metadata into the type registry.
func connect(ctx context.Context) (*session, error) {
	cfg, err := config.ClientConfig()
	if err != nil {
		return nil, err
	}

	c := client.New(cfg, log)
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("server is not reachable: %w", err)
	}
	if err := c.CheckServerVersion(ctx); err != nil {
		return nil, err
	}

	reg := registry.New()
	if err := reg.PopulateFromServer(ctx, c, log); err != nil {
		return nil, err
	}

	return &session{
		client:   c,
		registry: reg,
		mirror:   reconcile.NewMirror(c, reg, log),
	}, nil
}
