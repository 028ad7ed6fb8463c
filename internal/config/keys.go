package config

const (
	KeyOrganization     = "azdo_organization"
	KeyProject          = "azdo_project"
	KeyToken            = "azdo_token"
	KeyAuthMode         = "azdo_auth_mode"
	KeyBaseURL          = "azdo_base_url"
	KeyAPIVersion       = "azdo_api_version"
	KeyPolicyAPIVersion = "azdo_policy_api_version"
	KeyHTTPTimeout      = "http_timeout"
	KeyPollInterval     = "poll_interval"
	KeyConcurrency      = "enrich_concurrency"
	KeyListenAddr       = "listen_addr"
	KeyLogLevel         = "log_level"
	KeyPostgresURL      = "postgres_url"
	KeyDBDebug          = "db_debug"
	KeyAutoMigrate      = "db_auto_migrate"
	KeyMigrationsDir    = "db_migrations_dir"
	KeyHistoryMax       = "history_max"
)
