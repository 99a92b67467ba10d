package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-travel-booking/config"
)

func TestPoolConfigFrom(t *testing.T) {
	cfg := &config.Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "travel", DBSSLMode: "disable",
		DBMaxConns: 12, DBMinConns: 3, DBMaxConnLife: 30 * time.Minute,
	}

	pc, err := PoolConfigFrom(cfg).pgxConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, 30*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "travel", pc.ConnConfig.Database)
}

func TestPoolConfig_IgnoresUnsetLimits(t *testing.T) {
	pc, err := PoolConfig{DSN: "postgres://u:p@db:5432/travel", MinConns: 50}.pgxConfig()
	require.NoError(t, err)
	assert.Positive(t, pc.MaxConns)
	assert.LessOrEqual(t, pc.MinConns, pc.MaxConns)
}

func TestPoolConfig_BadDSN(t *testing.T) {
	_, err := PoolConfig{DSN: "postgres://u:p@db:notaport/travel"}.pgxConfig()
	assert.Error(t, err)
}
