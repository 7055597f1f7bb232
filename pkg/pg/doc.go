// Package pg connects to PostgreSQL through pgx/v5 and applies goose
// migrations.
//
// Connect opens a *pgxpool.Pool from Config, retrying while the database
// becomes reachable. Migrate runs migrations from an fs.FS (typically an
// embed.FS owned by the storage backend) against the same pool. Healthcheck
// adapts the pool to the readiness probe signature used by httpserver.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
//		return err
//	}
package pg
