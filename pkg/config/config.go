package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Consul   ConsulConfig   `mapstructure:"consul"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Jwt      JwtConfig      `mapstructure:"jwt"`
	Tracer   TracerConfig   `mapstructure:"tracer"`
	Sentinel SentinelConfig `mapstructure:"sentinel"`
	Events   EventsConfig   `mapstructure:"events"`
	Elastic  ElasticConfig  `mapstructure:"elastic"`
	Media    MediaConfig    `mapstructure:"media"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug | release | test
}

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql | postgres
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	LogLevel string `mapstructure:"log_level"` // silent | error | warn | info
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JwtConfig struct {
	Secret   string `mapstructure:"secret"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

type TracerConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Environment string  `mapstructure:"environment"`
	SampleRatio float64 `mapstructure:"sample_ratio"` // 0..1 of root spans kept
}

type SentinelConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	OrderQPS    float64 `mapstructure:"order_qps"`
	RegisterQPS float64 `mapstructure:"register_qps"`
}

type EventsConfig struct {
	Driver   string   `mapstructure:"driver"` // amqp | kafka | none
	URL      string   `mapstructure:"url"`
	Exchange string   `mapstructure:"exchange"`
	Brokers  []string `mapstructure:"brokers"`
}

type ElasticConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Index   string `mapstructure:"index"`
}

type MediaConfig struct {
	Root      string `mapstructure:"root"`
	URLPrefix string `mapstructure:"url_prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "storefront-api")
	v.SetDefault("service.port", 8080)
	v.SetDefault("service.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.log_level", "info")
	v.SetDefault("jwt.ttl_hours", 24)
	v.SetDefault("tracer.endpoint", "jaeger:4318")
	v.SetDefault("tracer.environment", "development")
	v.SetDefault("tracer.sample_ratio", 1.0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("sentinel.order_qps", 20)
	v.SetDefault("sentinel.register_qps", 5)
	v.SetDefault("events.driver", "none")
	v.SetDefault("events.exchange", "storefront.events")
	v.SetDefault("elastic.index", "products")
	v.SetDefault("media.root", "./media")
	v.SetDefault("media.url_prefix", "/media")
}

// LoadConfig 读取配置文件
// An optional .env next to the binary is loaded first so the env overrides below can use it.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] ignoring .env: %v", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Printf("[Config] no config.yaml under %s, using defaults", path)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	applyEnv(&config)

	log.Printf("Config loaded successfully from %s", path)
	return &config, nil
}

// applyEnv 环境变量适配
func applyEnv(c *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				*dst = p
			}
		}
	}

	num("SERVICE_PORT", &c.Service.Port)
	str("DB_DRIVER", &c.Database.Driver)
	str("MYSQL_HOST", &c.Database.Host)
	num("MYSQL_PORT", &c.Database.Port)
	str("MYSQL_USER", &c.Database.User)
	str("MYSQL_PASSWORD", &c.Database.Password)
	str("MYSQL_DBNAME", &c.Database.DbName)
	str("REDIS_ADDRESS", &c.Redis.Address)
	str("CONSUL_ADDRESS", &c.Consul.Address)
	str("JWT_SECRET", &c.Jwt.Secret)
	str("JAEGER_HOST", &c.Tracer.Endpoint)
	str("ELASTIC_URL", &c.Elastic.URL)
	str("AMQP_URL", &c.Events.URL)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
	}
}
