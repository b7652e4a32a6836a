package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the application's configuration values.
type Config struct {
	AppName       string `json:"appname"`
	AppEnv        string `json:"appenv"`
	AppPort       uint16 `json:"appport"`
	GinMode       string `json:"ginmode"`
	DBDriver      string `json:"dbdriver"`
	DBPath        string `json:"dbpath"`
	DBHost        string `json:"dbhost"`
	DBPort        uint16 `json:"dbport"`
	DBName        string `json:"dbname"`
	DBUSER        string `json:"dbuser"`
	DBPass        string `json:"dbpass"`
	SessionSecret string `json:"-"`
	ModelPath     string `json:"modelpath"`
	MetaPath      string `json:"metapath"`
}

var config *Config
var once sync.Once

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	return value
}

// LoadConfig loads the environment variables from an optional .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env is fine; the process environment is used as is.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Error loading .env file: %v", err)
		}

		appPort, _ := strconv.ParseUint(getEnv("APPPORT", "5000"), 10, 16)
		dbPort, _ := strconv.ParseUint(getEnv("DBPORT", "3306"), 10, 16)

		// Initialize the Config struct with values from environment variables.
		config = &Config{
			AppName:       getEnv("APPNAME", "Heart Risk"),
			AppEnv:        os.Getenv("APPENV"),
			AppPort:       uint16(appPort),
			GinMode:       os.Getenv("GINMODE"),
			DBDriver:      getEnv("DBDRIVER", "sqlite"),
			DBPath:        getEnv("DBPATH", "database.db"),
			DBHost:        os.Getenv("DBHOST"),
			DBPort:        uint16(dbPort),
			DBName:        os.Getenv("DBNAME"),
			DBUSER:        os.Getenv("DBUSER"),
			DBPass:        os.Getenv("DBPASS"),
			SessionSecret: os.Getenv("SESSIONSECRET"),
			ModelPath:     getEnv("MODELPATH", "assets/model.json"),
			MetaPath:      getEnv("METAPATH", "assets/model_meta.json"),
		}
	})
	return config
}

// IsTest reports whether the application runs with APPENV=test.
func (c *Config) IsTest() bool {
	return c != nil && c.AppEnv == "test"
}

// ConnectDatabase opens the relational store selected by the configuration.
// In the test environment every call returns a fresh in-memory SQLite database.
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()

	gormConfig := &gorm.Config{TranslateError: true}
	var dialector gorm.Dialector
	switch {
	case cfg.IsTest():
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
		dialector = sqlite.Open(fmt.Sprintf("file:test_%s?mode=memory&cache=shared", uuid.NewString()))
	case cfg.DBDriver == "mysql":
		// Build the Data Source Name (DSN) using the configuration values.
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	case cfg.DBDriver == "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}
