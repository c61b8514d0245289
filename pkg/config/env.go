package config

const (
	EnvPrefix = "AROOBA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv             = "AROOBA_APP_ENV"
	EnvLogLevel           = "AROOBA_LOG_LEVEL"
	EnvVATRate            = "AROOBA_VAT_RATE"
	EnvCooperativeFeeRate = "AROOBA_COOPERATIVE_FEE_RATE"
	EnvCategoryTablePath  = "AROOBA_CATEGORY_TABLE_PATH"
	EnvVolumetricDivisor  = "AROOBA_VOLUMETRIC_DIVISOR"
	EnvEscrowHoldDays     = "AROOBA_ESCROW_HOLD_DAYS"
	EnvDeviationThreshold = "AROOBA_PRICE_DEVIATION_THRESHOLD"
	EnvRedisURL           = "AROOBA_REDIS_URL"
	EnvRefreshInterval    = "AROOBA_SETTINGS_REFRESH_INTERVAL"
)
