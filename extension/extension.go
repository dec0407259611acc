// Package extension provides the Forge extension adapter for paystream.
//
// It implements the forge.Extension interface to integrate the stream
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.paystream" or
// "paystream" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/event/redispub"
	"github.com/xraph/paystream/store"
	"github.com/xraph/paystream/store/memory"
	"github.com/xraph/paystream/store/mongo"
	"github.com/xraph/paystream/store/postgres"
	"github.com/xraph/paystream/store/sqlite"
	"github.com/xraph/paystream/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "paystream"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Linear-vesting token payment streams"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the paystream engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *paystream.Engine
	store      store.Store
	groveDB    *grove.DB
	useGrove   bool
	publisher  *redispub.Publisher
	engineOpts []paystream.Option
}

// New creates a new paystream Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *paystream.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// builds the engine and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(); err != nil {
		return err
	}

	opts, err := e.buildEngineOpts(context.Background())
	if err != nil {
		return err
	}

	e.engine = paystream.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*paystream.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("paystream: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	defer e.MarkStopped()

	var errs []error
	if e.engine != nil {
		errs = append(errs, e.engine.Stop())
	}
	if e.publisher != nil {
		errs = append(errs, e.publisher.Close())
	}
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("paystream: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the store: an explicit WithStore wins, then a grove
// database, then the in-memory store.
func (e *Extension) resolveStore() error {
	if e.store != nil {
		return nil
	}
	if !e.useGrove {
		e.store = memory.New()
		return nil
	}
	if e.groveDB == nil {
		return errors.New("paystream: grove store requested without a grove.DB")
	}

	s, err := newGroveStore(e.groveDB, e.config.GroveDriver)
	if err != nil {
		return err
	}
	e.store = s
	e.Logger().Debug("paystream: using grove store",
		forge.F("driver", e.config.GroveDriver),
	)
	return nil
}

func newGroveStore(db *grove.DB, driver string) (store.Store, error) {
	switch driver {
	case DriverPostgres, "pg", "":
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo, "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("paystream: unknown grove driver %q", driver)
	}
}

// buildEngineOpts constructs engine options from the resolved config.
func (e *Extension) buildEngineOpts(ctx context.Context) ([]paystream.Option, error) {
	opts := make([]paystream.Option, 0, len(e.engineOpts)+3)

	if e.config.EscrowAddress != "" {
		opts = append(opts, paystream.WithEscrow(types.Address(e.config.EscrowAddress)))
	}

	if e.config.JWTSecret != "" {
		p, err := auth.NewJWT(auth.JWTConfig{
			Secret: []byte(e.config.JWTSecret),
			Issuer: e.config.JWTIssuer,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, paystream.WithAuth(p))
	}

	if e.config.RedisAddr != "" {
		pub, err := redispub.Dial(ctx, e.config.RedisAddr, redispub.Options{
			Prefix:       e.config.RedisChannelPrefix,
			HistoryLimit: e.config.RedisHistoryLimit,
		})
		if err != nil {
			return nil, err
		}
		e.publisher = pub
		opts = append(opts, paystream.WithEmitter(pub))
		e.Logger().Debug("paystream: publishing events to redis",
			forge.F("addr", e.config.RedisAddr),
			forge.F("prefix", e.config.RedisChannelPrefix),
		)
	}

	// Pass-through options go last so they override config.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("paystream: configuration is required but not found in config files; " +
				"ensure 'extensions.paystream' or 'paystream' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("paystream: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("escrow_address", e.config.EscrowAddress),
		forge.F("grove_driver", e.config.GroveDriver),
		forge.F("jwt", e.config.JWTSecret != ""),
		forge.F("redis_addr", e.config.RedisAddr),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.paystream", "paystream"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("paystream: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("paystream: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.EscrowAddress == "" {
		cfg.EscrowAddress = defaults.EscrowAddress
	}
	if cfg.GroveDriver == "" {
		cfg.GroveDriver = defaults.GroveDriver
	}
	if cfg.RedisChannelPrefix == "" {
		cfg.RedisChannelPrefix = defaults.RedisChannelPrefix
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&yamlConfig.EscrowAddress, programmaticConfig.EscrowAddress)
	fill(&yamlConfig.GroveDriver, programmaticConfig.GroveDriver)
	fill(&yamlConfig.JWTSecret, programmaticConfig.JWTSecret)
	fill(&yamlConfig.JWTIssuer, programmaticConfig.JWTIssuer)
	fill(&yamlConfig.RedisAddr, programmaticConfig.RedisAddr)
	fill(&yamlConfig.RedisChannelPrefix, programmaticConfig.RedisChannelPrefix)

	if yamlConfig.RedisHistoryLimit == 0 {
		yamlConfig.RedisHistoryLimit = programmaticConfig.RedisHistoryLimit
	}

	return mergeWithDefaults(yamlConfig)
}
