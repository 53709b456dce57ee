package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"investa/database"
	"investa/domain/entities"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database
	DatabaseURL  string
	DatabaseName string

	// HTTP transport
	HTTPAddr    string
	JWTSecret   string
	CORSOrigins []string

	// Outbound notifications
	NATSServers    string // empty disables NATS
	DiscordToken   string
	AdminChannelID string

	// Workers, hours in UTC
	AccrualHour        int
	ReminderHour       int
	ReminderWindowDays int

	// Refund policy
	RefundMaxMonths   int
	RefundPenaltyRate decimal.NullDecimal // unset means the contract rate

	// Platform settings
	MinWithdrawal               decimal.Decimal
	MaxWithdrawal               decimal.Decimal
	DepositsEnabled             bool
	RequireProfileForWithdrawal bool

	// Contract terms offered to investors
	ContractMonthlyRate decimal.Decimal
	ContractTermMonths  int
	MinReinvestment     decimal.Decimal

	// OpenTelemetry
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // console, otlp or none
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	LogLevel    string
	Environment string // development, production or test
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	if instance != nil {
		defer mu.Unlock()
		return instance
	}
	mu.Unlock()

	once.Do(func() {
		cfg, err := load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		mu.Lock()
		instance = cfg
		mu.Unlock()
	})

	mu.Lock()
	defer mu.Unlock()
	return instance
}

// GetDatabaseURL combines DATABASE_URL and DATABASE_NAME
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// PlatformSettings returns the money movement limits
func (c *Config) PlatformSettings() entities.PlatformSettings {
	return entities.PlatformSettings{
		DepositsEnabled:             c.DepositsEnabled,
		MinWithdrawal:               c.MinWithdrawal,
		MaxWithdrawal:               c.MaxWithdrawal,
		RequireProfileForWithdrawal: c.RequireProfileForWithdrawal,
		ContractMonthlyRate:         c.ContractMonthlyRate,
		ContractTermMonths:          c.ContractTermMonths,
		MinReinvestment:             c.MinReinvestment,
	}
}

// RefundPolicy returns the early refund curve
func (c *Config) RefundPolicy() entities.RefundPolicy {
	policy := entities.RefundPolicy{MaxMonthsPaid: c.RefundMaxMonths}
	if c.RefundPenaltyRate.Valid {
		policy.PenaltyRatePerMonth = c.RefundPenaltyRate.Decimal
	}
	return policy
}

// IsProduction reports whether the process runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:  getEnvWithDefault("HTTP_ADDR", ":8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		NATSServers:    os.Getenv("NATS_SERVERS"),
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		AdminChannelID: os.Getenv("ADMIN_CHANNEL_ID"),

		OTelEnabled:      os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:  getEnvWithDefault("OTEL_SERVICE_NAME", "investa"),
		OTelExporterType: getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint: getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),

		DepositsEnabled:             getEnvWithDefault("DEPOSITS_ENABLED", "true") == "true",
		RequireProfileForWithdrawal: getEnvWithDefault("REQUIRE_PROFILE_FOR_WITHDRAWAL", "true") == "true",
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.CORSOrigins = append(config.CORSOrigins, origin)
			}
		}
	}

	var err error
	ints := []struct {
		key    string
		def    int
		target *int
	}{
		{"ACCRUAL_HOUR", 2, &config.AccrualHour},
		{"REMINDER_HOUR", 9, &config.ReminderHour},
		{"REMINDER_WINDOW_DAYS", 7, &config.ReminderWindowDays},
		{"REFUND_MAX_MONTHS", entities.DefaultRefundMaxMonths, &config.RefundMaxMonths},
		{"CONTRACT_TERM_MONTHS", 12, &config.ContractTermMonths},
		{"OTEL_EXPORT_INTERVAL_MILLIS", 30000, &config.OTelExportIntervalMillis},
	}
	for _, v := range ints {
		if *v.target, err = getIntWithDefault(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if config.MinWithdrawal, err = getDecimalWithDefault("MIN_WITHDRAWAL", "10"); err != nil {
		return nil, err
	}
	if config.MaxWithdrawal, err = getDecimalWithDefault("MAX_WITHDRAWAL", "0"); err != nil {
		return nil, err
	}
	if config.ContractMonthlyRate, err = getDecimalWithDefault("CONTRACT_MONTHLY_RATE", "0.05"); err != nil {
		return nil, err
	}
	if config.MinReinvestment, err = getDecimalWithDefault("MIN_REINVESTMENT", "500"); err != nil {
		return nil, err
	}
	if rate := os.Getenv("REFUND_PENALTY_RATE"); rate != "" {
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("REFUND_PENALTY_RATE: %w", err)
		}
		config.RefundPenaltyRate = decimal.NewNullDecimal(d)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	for name, hour := range map[string]int{"ACCRUAL_HOUR": c.AccrualHour, "REMINDER_HOUR": c.ReminderHour} {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("%s must be between 0 and 23", name)
		}
	}
	if c.MinWithdrawal.IsNegative() || c.MaxWithdrawal.IsNegative() {
		return fmt.Errorf("withdrawal limits cannot be negative")
	}
	if c.MaxWithdrawal.IsPositive() && c.MaxWithdrawal.LessThan(c.MinWithdrawal) {
		return fmt.Errorf("MAX_WITHDRAWAL must not be below MIN_WITHDRAWAL")
	}
	if c.MinReinvestment.IsNegative() {
		return fmt.Errorf("MIN_REINVESTMENT cannot be negative")
	}
	if c.ContractTermMonths < 1 || c.ContractTermMonths > entities.MaxTermMonths {
		return fmt.Errorf("CONTRACT_TERM_MONTHS must be between 1 and %d", entities.MaxTermMonths)
	}
	if !c.ContractMonthlyRate.IsPositive() || c.ContractMonthlyRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("CONTRACT_MONTHLY_RATE must be between 0 and 1")
	}
	if c.RefundMaxMonths < 1 {
		return fmt.Errorf("REFUND_MAX_MONTHS must be at least 1")
	}
	if c.RefundPenaltyRate.Valid && !c.RefundPenaltyRate.Decimal.IsPositive() {
		return fmt.Errorf("REFUND_PENALTY_RATE must be greater than zero")
	}
	// The refund curve must stay positive up to the last eligible month.
	if policy := c.RefundPolicy(); !policy.AllowsRate(c.ContractMonthlyRate) {
		return fmt.Errorf("refund penalty rate %s times %d months reaches the whole principal; lower REFUND_PENALTY_RATE or CONTRACT_MONTHLY_RATE",
			policy.PenaltyRate(c.ContractMonthlyRate), c.RefundMaxMonths-1)
	}

	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDecimalWithDefault(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:                    ":0",
		JWTSecret:                   "test-secret",
		AccrualHour:                 2,
		ReminderHour:                9,
		ReminderWindowDays:          7,
		RefundMaxMonths:             entities.DefaultRefundMaxMonths,
		MinWithdrawal:               decimal.NewFromInt(10),
		MaxWithdrawal:               decimal.Zero,
		DepositsEnabled:             true,
		RequireProfileForWithdrawal: true,
		ContractMonthlyRate:         decimal.RequireFromString("0.05"),
		ContractTermMonths:          12,
		MinReinvestment:             decimal.NewFromInt(500),
		OTelServiceName:             "investa",
		OTelExporterType:            "none",
		LogLevel:                    "debug",
		Environment:                 "test",
	}
}
