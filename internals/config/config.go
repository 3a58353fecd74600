package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server struct {
		Host string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
		Port int    `yaml:"port" env:"PORT" env-default:"3000"`
	} `yaml:"server"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"library.db"`
	} `yaml:"database"`

	SMTP struct {
		Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
		Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
		Username string `yaml:"username" env:"SMTP_USERNAME"`
		Password string `yaml:"password" env:"SMTP_PASSWORD"`
		From     string `yaml:"from" env:"SMTP_FROM" env-default:"library@iitdh.ac.in"`
		Workers  int    `yaml:"workers" env:"SMTP_WORKERS" env-default:"3"`
	} `yaml:"smtp"`

	Library struct {
		EmailDomain   string        `yaml:"email_domain" env:"LIBRARY_EMAIL_DOMAIN" env-default:"iitdh.ac.in"`
		LoanPeriod    time.Duration `yaml:"loan_period" env:"LIBRARY_LOAN_PERIOD" env-default:"24h"`
		OtpTTL        time.Duration `yaml:"otp_ttl" env:"LIBRARY_OTP_TTL" env-default:"5m"`
		SweepInterval time.Duration `yaml:"sweep_interval" env:"LIBRARY_SWEEP_INTERVAL" env-default:"1h"`
	} `yaml:"library"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" && !flag.Parsed() {
		configflag := flag.String("config", "", "Path to configuration file")
		flag.Parse()
		configPath = *configflag
	}

	var cfg Config
	if configPath == "" {
		// No config file; environment variables and defaults carry everything.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("Failed to read config from environment: %v", err)
		}
		return &cfg
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	return &cfg
}
