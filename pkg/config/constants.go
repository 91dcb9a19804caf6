package config

// EnvPrefix is intentionally empty; every field carries a fully qualified
// PAYPORTAL_ envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv       = "PAYPORTAL_APP_ENV"
	EnvGCPProjectID = "PAYPORTAL_GCP_PROJECT_ID"
	EnvCustomerID   = "PAYPORTAL_CUSTOMER_ID"
)
