package store

import (
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kalpa111334/Hr-Management/internal/models"
)

// Config selects and configures the database backend.
type Config struct {
	Driver string `mapstructure:"driver"`
	Debug  bool   `mapstructure:"debug"`
	Mysql  struct {
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Host     string `mapstructure:"host"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mysql"`
	Postgres struct {
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Database string `mapstructure:"database"`
	} `mapstructure:"postgres"`
}

// Open connects to the configured database and migrates the attendance
// schema.
func Open(cfg Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "mysql":
		if cfg.Mysql.User == "" || cfg.Mysql.Host == "" || cfg.Mysql.Database == "" {
			return nil, fmt.Errorf("missing connection info")
		}

		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Mysql.User, cfg.Mysql.Password, cfg.Mysql.Host, cfg.Mysql.Database)
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}

	case "postgres":
		if cfg.Postgres.User == "" || cfg.Postgres.Host == "" || cfg.Postgres.Database == "" {
			return nil, fmt.Errorf("missing connection info")
		}

		port := cfg.Postgres.Port
		if port == 0 {
			port = 5432
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			cfg.Postgres.Host, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, port)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown db driver %s", cfg.Driver)
	}

	if cfg.Debug {
		db.Logger = db.Logger.LogMode(logger.Info)
	}

	for _, model := range []interface{}{
		&models.OfficeLocation{},
		&models.AttendanceRecord{},
		&models.UserPreference{},
		&models.TrackerSnapshot{},
	} {
		err = db.AutoMigrate(model)
		if err != nil {
			log.Printf("failed to automigrate database %v", err)
			return nil, err
		}
	}

	return db, nil
}
