package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	gateKeyENV        = "GATE_KEY"
	gateSecretENV     = "GATE_SECRET"
	signalsKeyENV     = "SIGNALS_AUTH_KEY"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	LogsPath         string `yaml:"logs_path"`
	CleanLogsOnStart bool   `yaml:"clean_logs_on_start"`
	DB               string `yaml:"db_dsn"`

	Gate struct {
		Key           string  `yaml:"key"`
		Secret        string  `yaml:"secret"`
		BaseURL       string  `yaml:"base_url"`
		FeesPercent   float64 `yaml:"fees_percent"`
		QuoteCurrency string  `yaml:"quote_currency"`
	} `yaml:"gate"`

	SignalsHub struct {
		Addr               string `yaml:"addr"`
		AuthKey            string `yaml:"auth_key"`
		MaxSignalAgeMillis int    `yaml:"max_signal_age_millis"`
	} `yaml:"signals_hub"`

	Operation struct {
		MinimumCostUSDT             float64 `yaml:"minimum_cost_usdt"`
		UseBalancePercent           float64 `yaml:"use_balance_percent"`
		MaxSimultaneous             int     `yaml:"max_simultaneous"`
		PriceTrackingIntervalMillis int     `yaml:"price_tracking_interval_millis"`
		OrderTrackingIntervalMillis int     `yaml:"order_tracking_interval_millis"`
	} `yaml:"operation"`

	Buy struct {
		BuyDistancePercent float64 `yaml:"buy_distance_percent"`
		// first FOKAttempts tries go out fill-or-kill, the rest
		// immediate-or-cancel
		FOKAttempts      int `yaml:"fok_attempts"`
		RetryLimitMillis int `yaml:"retry_limit_millis"`
	} `yaml:"buy"`

	TakeProfit struct {
		TriggerDistancePercent float64 `yaml:"trigger_distance_percent"`
		SellDistancePercent    float64 `yaml:"sell_distance_percent"`
	} `yaml:"take_profit"`

	StopLoss struct {
		TriggerDistancePercent float64 `yaml:"trigger_distance_percent"` // negative
		SellDistancePercent    float64 `yaml:"sell_distance_percent"`   // negative
	} `yaml:"stop_loss"`

	EmergencySell struct {
		SellDistancePercent    float64 `yaml:"sell_distance_percent"` // negative
		RetryPercentStep       float64 `yaml:"retry_percent_step"`    // negative, widens the discount per failed attempt
		RetryPercentFloor      float64 `yaml:"retry_percent_floor"`   // concession never goes below this
		MaxAttempts            int     `yaml:"max_attempts"`
		StopOnPendingValueUSDT float64 `yaml:"stop_on_pending_value_usdt"`
	} `yaml:"emergency_sell"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`
}

func (c *Config) PriceTrackingInterval() time.Duration {
	return time.Duration(c.Operation.PriceTrackingIntervalMillis) * time.Millisecond
}

func (c *Config) OrderTrackingInterval() time.Duration {
	return time.Duration(c.Operation.OrderTrackingIntervalMillis) * time.Millisecond
}

func (c *Config) BuyRetryLimit() time.Duration {
	return time.Duration(c.Buy.RetryLimitMillis) * time.Millisecond
}

func (c *Config) MaxSignalAge() time.Duration {
	return time.Duration(c.SignalsHub.MaxSignalAgeMillis) * time.Millisecond
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	config := defaults()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if key := os.Getenv(gateKeyENV); key != "" {
		config.Gate.Key = key
	}
	if secret := os.Getenv(gateSecretENV); secret != "" {
		config.Gate.Secret = secret
	}
	if key := os.Getenv(signalsKeyENV); key != "" {
		config.SignalsHub.AuthKey = key
	}
	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}

	return config, nil
}

func defaults() *Config {
	config := &Config{
		LogsPath:         getenvDefault("LOGS_PATH", "logs"),
		CleanLogsOnStart: boolFromEnv("CLEAN_LOGS_ON_START", false),
	}

	config.Gate.BaseURL = "https://api.gateio.ws"
	config.Gate.FeesPercent = 0.2
	config.Gate.QuoteCurrency = "USDT"

	config.SignalsHub.Addr = getenvDefault("SIGNALS_HUB_ADDR", ":3000")
	config.SignalsHub.MaxSignalAgeMillis = intFromEnv("MAX_SIGNAL_AGE_MILLIS", 10_000)

	config.Operation.MinimumCostUSDT = 1
	config.Operation.UseBalancePercent = 100
	config.Operation.MaxSimultaneous = 1
	config.Operation.PriceTrackingIntervalMillis = 500
	config.Operation.OrderTrackingIntervalMillis = 500

	config.Buy.BuyDistancePercent = 1
	config.Buy.FOKAttempts = 10
	config.Buy.RetryLimitMillis = 5_000

	config.TakeProfit.TriggerDistancePercent = 7
	config.TakeProfit.SellDistancePercent = 6
	config.StopLoss.TriggerDistancePercent = -2
	config.StopLoss.SellDistancePercent = -3

	config.EmergencySell.SellDistancePercent = -2
	config.EmergencySell.RetryPercentStep = -1
	config.EmergencySell.RetryPercentFloor = -10
	config.EmergencySell.MaxAttempts = 10
	config.EmergencySell.StopOnPendingValueUSDT = 1

	config.Health.Addr = getenvDefault("HEALTH_ADDR", ":8080")

	return config
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
