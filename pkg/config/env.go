package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBDriver = "STOREFRONT_DB_DRIVER"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvCartMaxItemQuantity = "STOREFRONT_CART_MAX_ITEM_QUANTITY"
	EnvCartMaxItems        = "STOREFRONT_CART_MAX_ITEMS"
	EnvCartUserTTL         = "STOREFRONT_CART_USER_TTL"
	EnvCartGuestTTL        = "STOREFRONT_CART_GUEST_TTL"

	EnvCheckoutTaxRate               = "STOREFRONT_CHECKOUT_TAX_RATE"
	EnvCheckoutFreeShippingThreshold = "STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD_CENTS"
	EnvCheckoutShippingRate          = "STOREFRONT_CHECKOUT_SHIPPING_RATE_CENTS"

	EnvGCPProjectID       = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvRateLimitRequests  = "STOREFRONT_RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow    = "STOREFRONT_RATE_LIMIT_WINDOW"

	EnvRateLimitTrustedProxies = "STOREFRONT_RATE_LIMIT_TRUSTED_PROXIES"
	EnvLockWait           = "STOREFRONT_LOCK_WAIT"
	EnvOutboxBatchSize    = "STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxMaxAttempts  = "STOREFRONT_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxPollInterval = "STOREFRONT_OUTBOX_PUBLISH_POLL_MS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
