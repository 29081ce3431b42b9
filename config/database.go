package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

// SetDB replaces the global connection (tests, one-off tools).
func SetDB(conn *gorm.DB) {
	db = conn
}

func dialectorFor(s DatabaseSettings) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case "", DriverMySQL:
		network := "tcp"
		address := fmt.Sprintf("%s:%s", s.Host, s.Port)
		// Cloud SQL unix socket, e.g. DB_HOST=/cloudsql/<CONNECTION_NAME>
		if strings.HasPrefix(s.Host, "/cloudsql/") {
			network = "unix"
			address = s.Host
		}
		// READ COMMITTED so aggregate reads after a row lock see the latest commits.
		dsn := fmt.Sprintf("%s:%s@%s(%s)/%s?parseTime=true&loc=UTC&transaction_isolation=%%27READ-COMMITTED%%27",
			s.User,
			s.Password,
			network,
			address,
			s.Name,
		)
		return mysql.Open(dsn), nil
	case DriverSQLite:
		// writers take the lock at BEGIN and wait on busy_timeout
		return sqlite.Open(s.SqlitePath + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.Driver)
	}
}

// OpenDatabase opens a single connection pool without retrying.
func OpenDatabase(s DatabaseSettings) (*gorm.DB, error) {
	dialector, err := dialectorFor(s)
	if err != nil {
		return nil, err
	}
	conn, err := gorm.Open(dialector, initConfig(s))
	if err != nil {
		return nil, err
	}

	if sqlDB, derr := conn.DB(); derr == nil && sqlDB != nil {
		if s.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(s.MaxOpenConns)
		}
		if s.MaxIdleConns >= 0 {
			sqlDB.SetMaxIdleConns(s.MaxIdleConns)
		}
		if s.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(s.ConnMaxLifetime)
		}
		if s.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(s.ConnMaxIdleTime)
		}
	}

	if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}
	return conn, nil
}

// ConnectDatabaseWithRetry connects and sets the global DB.
// Call this from main() AFTER the HTTP server is listening.
func ConnectDatabaseWithRetry(ctx context.Context, s DatabaseSettings) error {
	var attempt int
	for {
		attempt++
		conn, err := OpenDatabase(s)
		if err == nil {
			db = conn
			log.Printf("connected to database (driver=%s attempt=%d)", s.Driver, attempt)
			return nil
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func initConfig(s DatabaseSettings) *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(s.LogLevel),
		NamingStrategy: initNamingStrategy(),
		// duplicate keys surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}
}

// initLog Connection Log Configuration
func initLog(level string) logger.Interface {
	logLevel := logger.Error
	switch strings.ToLower(level) {
	case "silent":
		logLevel = logger.Silent
	case "warn":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  logLevel,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
