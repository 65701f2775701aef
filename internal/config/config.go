package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"habitloop/pkg/config"
)

type ReminderConfig struct {
	LeadMinutes int `yaml:"lead_minutes"`
}

type Config struct {
	Server   config.ServerConfig `yaml:"server"`
	DB       config.DBConfig     `yaml:"db"`
	MQ       config.MQConfig     `yaml:"mq"`
	Redis    config.RedisConfig  `yaml:"redis"`
	JWT      config.JWTConfig    `yaml:"jwt"`
	Reminder ReminderConfig      `yaml:"reminder"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// Environment overrides take priority over the file values.
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	if lead := os.Getenv("REMINDER_LEAD_MINUTES"); lead != "" {
		if n, err := strconv.Atoi(lead); err == nil {
			cfg.Reminder.LeadMinutes = n
		}
	}

	return &cfg
}
