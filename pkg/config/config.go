package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	GCP       GCPConfig
	Firestore FirestoreConfig
	Stripe    StripeConfig
	Portal    PortalConfig
	Metrics   MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAYPORTAL_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"PAYPORTAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAYPORTAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PAYPORTAL_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PAYPORTAL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PAYPORTAL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type FirestoreConfig struct {
	CustomersCollection string `envconfig:"PAYPORTAL_FIRESTORE_CUSTOMERS_COLLECTION" default:"stripe_customers"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PAYPORTAL_STRIPE_API_KEY"`
	Env    string `envconfig:"PAYPORTAL_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PortalConfig struct {
	CustomerID string `envconfig:"PAYPORTAL_CUSTOMER_ID"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"PAYPORTAL_METRICS_ENABLED" default:"true"`
}
