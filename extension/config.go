package extension

// Config holds the paystream extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.paystream" or "paystream" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// EscrowAddress is the account that holds funded stream balances
	// (default: "paystream-escrow").
	EscrowAddress string `json:"escrow_address" mapstructure:"escrow_address" yaml:"escrow_address"`

	// GroveDriver selects the store backend built around the grove.DB passed
	// with WithGroveDB: "postgres", "sqlite" or "mongo" (default: "postgres").
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// JWTSecret enables bearer token authorization. Callers must present an
	// HS256 token whose subject is the acting address.
	JWTSecret string `json:"jwt_secret" mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// JWTIssuer, when set, is required to match the token issuer.
	JWTIssuer string `json:"jwt_issuer" mapstructure:"jwt_issuer" yaml:"jwt_issuer"`

	// RedisAddr enables event fan-out through Redis pub/sub.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// RedisChannelPrefix prefixes channels and history keys (default: "paystream:").
	RedisChannelPrefix string `json:"redis_channel_prefix" mapstructure:"redis_channel_prefix" yaml:"redis_channel_prefix"`

	// RedisHistoryLimit caps the per-stream event history kept in Redis.
	// Zero keeps everything.
	RedisHistoryLimit int64 `json:"redis_history_limit" mapstructure:"redis_history_limit" yaml:"redis_history_limit"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// Grove drivers understood by GroveDriver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EscrowAddress:      "paystream-escrow",
		GroveDriver:        DriverPostgres,
		RedisChannelPrefix: "paystream:",
	}
}
