package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the application's configuration values.
type Config struct {
	AppName   string `json:"appname"`
	AppEnv    string `json:"appenv"`
	AppPort   uint16 `json:"appport"`
	GinMode   string `json:"ginmode"`
	APIPath   string `json:"apipath"`
	TimeZone  string `json:"timezone"`
	DBHost    string `json:"dbhost"`
	DBPort    uint16 `json:"dbport"`
	DBName    string `json:"dbname"`
	DBUser    string `json:"dbuser"`
	DBPass    string `json:"dbpass"`
	MongoURI  string `json:"mongouri"`
	MongoDB   string `json:"mongodb"`
	JWTSecret string `json:"jwtsecret"`
	TokenTTL  time.Duration
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// Variables may also come from the actual environment, so a missing
		// .env file is not fatal.
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}

		appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
		dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)

		ttlMinutes, err := strconv.Atoi(os.Getenv("TOKENTTL"))
		if err != nil || ttlMinutes <= 0 {
			ttlMinutes = 60
		}

		apiPath := os.Getenv("APIPATH")
		if apiPath == "" {
			apiPath = "/api"
		}

		tz := os.Getenv("TIMEZONE")
		if tz == "" {
			tz = "Local"
		}

		// Initialize the Config struct with values from environment variables.
		config = &Config{
			AppName:   os.Getenv("APPNAME"),
			AppEnv:    os.Getenv("APPENV"),
			AppPort:   uint16(appPort),
			GinMode:   os.Getenv("GINMODE"),
			APIPath:   apiPath,
			TimeZone:  tz,
			DBHost:    os.Getenv("DBHOST"),
			DBPort:    uint16(dbPort),
			DBName:    os.Getenv("DBNAME"),
			DBUser:    os.Getenv("DBUSER"),
			DBPass:    os.Getenv("DBPASS"),
			MongoURI:  os.Getenv("MONGOURI"),
			MongoDB:   os.Getenv("MONGODB"),
			JWTSecret: os.Getenv("JWTSECRET"),
			TokenTTL:  time.Duration(ttlMinutes) * time.Minute,
		}
	})
	return config
}

// Location resolves the configured clinic time zone. Appointment timestamps
// and availability dates are civil times in this zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("Invalid TIMEZONE %q, falling back to server local time: %v", c.TimeZone, err)
		return time.Local
	}
	return loc
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
// In the test environment it opens an in-memory SQLite database instead, so the
// test suite never needs a running MySQL server.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()

	if cfg.AppEnv == "test" || os.Getenv("APPENV") == "test" {
		return gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	}

	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	// TranslateError lets uniqueness violations surface as
	// gorm.ErrDuplicatedKey instead of driver-specific error types.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	return db, nil
}
