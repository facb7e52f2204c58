package store

// Opts holds configuration options for database-backed stores.
type Opts struct {
	DSN string // database connection string
}

// Option defines a configuration option for database-backed stores.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}
