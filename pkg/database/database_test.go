package database

import (
	"testing"

	"go-storefront/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.DatabaseConfig{
		Host: "127.0.0.1", Port: 3306, User: "root", Password: "pw", DbName: "shop",
	})
	assert.Contains(t, dsn, "root:pw@tcp(127.0.0.1:3306)/shop?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DatabaseConfig{Host: "pg", Port: 5432, User: "u", Password: "p", DbName: "shop"})
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=shop sslmode=disable", dsn)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, LogLevel("SILENT"))
	assert.Equal(t, logger.Warn, LogLevel("warn"))
	assert.Equal(t, logger.Info, LogLevel(""))
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb, err := InitRedis(config.RedisConfig{Address: addr})
	require.NoError(t, err)
	defer rdb.Close()

	mr.Close()
	_, err = InitRedis(config.RedisConfig{Address: addr})
	assert.Error(t, err)
}
