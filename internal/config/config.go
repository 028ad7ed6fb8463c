package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps persistent flag names to the viper key they override.
var flagKeys = map[string]string{
	"org":           KeyOrganization,
	"project":       KeyProject,
	"token":         KeyToken,
	"auth-mode":     KeyAuthMode,
	"base-url":      KeyBaseURL,
	"poll-interval": KeyPollInterval,
	"concurrency":   KeyConcurrency,
	"listen":        KeyListenAddr,
	"log-level":     KeyLogLevel,
	"postgres-url":  KeyPostgresURL,
	"migrations":    KeyMigrationsDir,
}

func Init(root *cobra.Command) {
	viper.AutomaticEnv()
	_ = godotenv.Load(".env")
	if root != nil {
		BindFlags(root.PersistentFlags())
	}
	setDefaults()
}

// BindFlags lets the known flags in fs override their configuration keys.
// Subcommands call it for their local flags.
func BindFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = viper.BindPFlag(key, f)
		}
	})
}

func setDefaults() {
	viper.SetDefault(KeyAuthMode, "basic")
	viper.SetDefault(KeyBaseURL, "https://dev.azure.com")
	viper.SetDefault(KeyAPIVersion, "7.1")
	viper.SetDefault(KeyPolicyAPIVersion, "7.1-preview.1")
	viper.SetDefault(KeyHTTPTimeout, "30s")
	viper.SetDefault(KeyPollInterval, "60s")
	viper.SetDefault(KeyConcurrency, 16)
	viper.SetDefault(KeyListenAddr, ":8080")
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyDBDebug, false)
	viper.SetDefault(KeyAutoMigrate, true)
	viper.SetDefault(KeyHistoryMax, 500)
}

func Organization() string     { return strings.TrimSpace(viper.GetString(KeyOrganization)) }
func Project() string          { return strings.TrimSpace(viper.GetString(KeyProject)) }
func Token() string            { return viper.GetString(KeyToken) }
func AuthMode() string         { return strings.ToLower(viper.GetString(KeyAuthMode)) }
func BaseURL() string          { return viper.GetString(KeyBaseURL) }
func APIVersion() string       { return viper.GetString(KeyAPIVersion) }
func PolicyAPIVersion() string { return viper.GetString(KeyPolicyAPIVersion) }
func HTTPTimeout() string      { return viper.GetString(KeyHTTPTimeout) }
func PollInterval() string     { return viper.GetString(KeyPollInterval) }
func Concurrency() int         { return viper.GetInt(KeyConcurrency) }
func ListenAddr() string       { return viper.GetString(KeyListenAddr) }
func LogLevel() string         { return viper.GetString(KeyLogLevel) }
func PostgresURL() string      { return viper.GetString(KeyPostgresURL) }
func DBDebug() bool            { return viper.GetBool(KeyDBDebug) }
func AutoMigrate() bool        { return viper.GetBool(KeyAutoMigrate) }
func MigrationsDir() string    { return viper.GetString(KeyMigrationsDir) }
func HistoryMax() int          { return viper.GetInt(KeyHistoryMax) }

// ParseDuration parses value, returning fallback when it is blank.
func ParseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	return d, nil
}
