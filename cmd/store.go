package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/meridian-fm/assetcond/internal/store"
)

// openStore opens the configured store and runs migrations so commands
// can assume the schema exists.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "store: migrate")
	}

	return st, nil
}
