package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
service:
  name: shop
  port: 9090
database:
  driver: postgres
  host: db.local
  port: 5432
  user: shop
  dbname: shop
jwt:
  secret: s3cret
events:
  driver: kafka
  brokers: ["k1:9092", "k2:9092"]
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleYAML), 0o644))

	c, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "shop", c.Service.Name)
	assert.Equal(t, 9090, c.Service.Port)
	assert.Equal(t, "postgres", c.Database.Driver)
	assert.Equal(t, "db.local", c.Database.Host)
	assert.Equal(t, "s3cret", c.Jwt.Secret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Events.Brokers)

	// defaults fill the gaps
	assert.Equal(t, 24, c.Jwt.TTLHours)
	assert.Equal(t, "./media", c.Media.Root)
	assert.Equal(t, "products", c.Elastic.Index)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleYAML), 0o644))

	t.Setenv("MYSQL_HOST", "override.local")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("SERVICE_PORT", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2,c:3")

	c, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "override.local", c.Database.Host)
	assert.Equal(t, 3307, c.Database.Port)
	assert.Equal(t, 9090, c.Service.Port, "unparsable port keeps the file value")
	assert.Equal(t, []string{"a:1", "b:2", "c:3"}, c.Events.Brokers)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	c, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "storefront-api", c.Service.Name)
	assert.Equal(t, 8080, c.Service.Port)
	assert.Equal(t, "mysql", c.Database.Driver)
	assert.Equal(t, "none", c.Events.Driver)
}
