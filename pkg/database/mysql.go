package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"go-storefront/pkg/config"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 根据 driver 初始化数据库连接
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "mysql":
		return InitMySQL(cfg)
	case "postgres", "postgresql":
		return InitPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MySQLDSN builds the go-sql-driver DSN for cfg.
func MySQLDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.DbName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// PostgresDSN builds a libpq style DSN for cfg.
func PostgresDSN(cfg config.DatabaseConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DbName, sslmode)
}

// InitMySQL 初始化 MySQL 连接
func InitMySQL(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(MySQLDSN(cfg)), gormConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := tunePool(db); err != nil {
		return nil, err
	}

	log.Println("MySQL connected successfully")
	return db, nil
}

// InitPostgres opens a Postgres connection with the same pool settings as MySQL.
func InitPostgres(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(PostgresDSN(cfg)), gormConfig(cfg))
	if err != nil {
		return nil, err
	}
	if err := tunePool(db); err != nil {
		return nil, err
	}

	log.Println("Postgres connected successfully")
	return db, nil
}

func gormConfig(cfg config.DatabaseConfig) *gorm.Config {
	// 开发模式下打印 SQL
	return &gorm.Config{
		Logger: logger.Default.LogMode(LogLevel(cfg.LogLevel)),
	}
}

// LogLevel maps a config string onto a gorm log level, defaulting to Info.
func LogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	default:
		return logger.Info
	}
}

func tunePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}
