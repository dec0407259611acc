package extension

import (
	"github.com/xraph/grove"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/plugin"
	"github.com/xraph/paystream/store"
)

// Option configures the paystream Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a paystream.Option through to the engine.
func WithEngineOption(opt paystream.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, paystream.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithEscrowAddress sets the escrow account.
func WithEscrowAddress(addr string) Option {
	return func(e *Extension) { e.config.EscrowAddress = addr }
}

// WithJWT enables bearer token authorization.
func WithJWT(secret, issuer string) Option {
	return func(e *Extension) {
		e.config.JWTSecret = secret
		e.config.JWTIssuer = issuer
	}
}

// WithRedis enables event fan-out through Redis at addr.
func WithRedis(addr, prefix string) Option {
	return func(e *Extension) {
		e.config.RedisAddr = addr
		e.config.RedisChannelPrefix = prefix
	}
}

// WithGroveDB builds the store around db. driver is one of DriverPostgres,
// DriverSQLite or DriverMongo and must match how db was opened.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.GroveDriver = driver
		e.useGrove = true
	}
}
