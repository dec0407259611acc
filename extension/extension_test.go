package extension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/store/memory"
	"github.com/xraph/paystream/stream"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{EscrowAddress: "vault"})
	assert.Equal(t, "vault", cfg.EscrowAddress)
	assert.Equal(t, DriverPostgres, cfg.GroveDriver)
	assert.Equal(t, "paystream:", cfg.RedisChannelPrefix)
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{EscrowAddress: "from-yaml", RedisAddr: "redis:6379"}
	prog := Config{
		DisableMigrate:    true,
		EscrowAddress:     "from-code",
		GroveDriver:       DriverSQLite,
		JWTSecret:         "s3cret",
		RedisHistoryLimit: 50,
	}

	cfg := mergeConfigurations(yaml, prog)
	assert.True(t, cfg.DisableMigrate)
	assert.Equal(t, "from-yaml", cfg.EscrowAddress, "yaml wins")
	assert.Equal(t, DriverSQLite, cfg.GroveDriver, "code fills gaps")
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, int64(50), cfg.RedisHistoryLimit)
	assert.Equal(t, "paystream:", cfg.RedisChannelPrefix)
}

func TestNewGroveStoreRejectsUnknownDriver(t *testing.T) {
	_, err := newGroveStore(nil, "oracle")
	assert.ErrorContains(t, err, "unknown grove driver")
}

func TestResolveStore(t *testing.T) {
	mem := memory.New()
	e := New(WithStore(mem))
	require.NoError(t, e.resolveStore())
	assert.Same(t, mem, e.store)

	e = New()
	require.NoError(t, e.resolveStore())
	assert.IsType(t, &memory.Store{}, e.store)

	e = New(WithGroveDB(nil, DriverPostgres))
	assert.Error(t, e.resolveStore())
}

func TestBuildEngineOptsWiresJWT(t *testing.T) {
	e := New(WithJWT("s3cret", "paystream-test"), WithEscrowAddress("vault"))
	e.config = mergeWithDefaults(e.config)

	opts, err := e.buildEngineOpts(context.Background())
	require.NoError(t, err)

	eng := paystream.New(memory.New(), opts...)
	assert.Equal(t, "vault", string(eng.Escrow()))

	// The plain caller context is no longer enough once JWT is on.
	_, err = eng.Initialize(auth.WithCaller(context.Background(), "admin"), "admin", "fees", 0)
	assert.ErrorIs(t, err, paystream.ErrUnauthorized)

	_, err = eng.ListStreams(context.Background(), stream.ListOpts{})
	assert.NoError(t, err)
}
