package store

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spigell/talent-screener/internal/store/model"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "pgsql"
)

// Config describes the database connection.
type Config struct {
	Type     string `mapstructure:"type" validate:"omitempty,oneof=sqlite pgsql"`
	Name     string `mapstructure:"name" validate:"required"`
	Hostname string `mapstructure:"hostname" validate:"required_if=Type pgsql"`
	Port     uint   `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"-"`
}

func InitDB(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("gorm")

	var dia gorm.Dialector

	if cfg.Type == TypePostgres {
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s port=%d",
			cfg.Hostname,
			cfg.User,
			cfg.Password,
			port,
		)
		if cfg.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Name)
		}
		dia = postgres.Open(dsn)
	} else {
		dia = sqlite.Open(cfg.Name)
	}

	newLogger := logger.New(
		zap.NewStdLog(log),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to configure connections: %w", err)
	}

	if cfg.Type == TypePostgres {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)

		var version string
		if result := newDB.Raw("SELECT version()").Scan(&version); result.Error != nil {
			return nil, result.Error
		}
		log.Info("connected to postgres", zap.String("version", version))
	} else {
		// a sqlite database (in-memory ones especially) lives on one connection
		sqlDB.SetMaxOpenConns(1)
	}

	if err := newDB.AutoMigrate(&model.Candidate{}); err != nil {
		return nil, fmt.Errorf("migrate candidates table: %w", err)
	}

	return newDB, nil
}
