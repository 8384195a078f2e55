package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
)

const (
	configFilePath = "/etc/appless/config.yaml"
	configPathEnv  = "APPLESS_CONFIG"
)

// LoadConfig reads the YAML config (APPLESS_CONFIG overrides the default
// location) with secrets layered from the environment.
func LoadConfig(filePath string) (*AppConfModel, error) {
	if filePath == "" {
		filePath = os.Getenv(configPathEnv)
	}
	if filePath == "" {
		filePath = configFilePath
	}

	return loadViperConfig(viper.New(), filePath)
}

func loadViperConfig(v *viper.Viper, filePath string) (*AppConfModel, error) {
	setEnvConf(v)
	setDefault(v)

	if _, err := os.Stat(filePath); err == nil {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading viper config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading viper config: %w", err)
	}

	conf := new(AppConfModel)
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("error loading viper config to struct: %w", err)
	}

	conf.Firebase.PrivateKey = normalisePrivateKey(conf.Firebase.PrivateKey)
	conf.Firebase.ServiceAccountB64 = strings.TrimSpace(conf.Firebase.ServiceAccountB64)

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func setEnvConf(v *viper.Viper) {
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("mode", "APPLESS_MODE")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("cron.secret", "CRON_SECRET")

	v.BindEnv("firebase.project_id", "FIREBASE_PROJECT_ID")
	v.BindEnv("firebase.credentials_file", "FIREBASE_CREDENTIALS_FILE")
	v.BindEnv("firebase.service_account_b64", "FIREBASE_SERVICE_ACCOUNT_B64")
	v.BindEnv("firebase.client_email", "FIREBASE_CLIENT_EMAIL")
	v.BindEnv("firebase.private_key", "FIREBASE_PRIVATE_KEY")

	v.BindEnv("transport.provider", "TRANSPORT_PROVIDER")
	v.BindEnv("transport.from_number", "TWILIO_FROM_NUMBER")
	v.BindEnv("transport.twilio.account_sid", "TWILIO_ACCOUNT_SID")
	v.BindEnv("transport.twilio.auth_token", "TWILIO_AUTH_TOKEN")
	v.BindEnv("transport.sns.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("transport.sns.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("transport.sns.region", "AWS_REGION")

	v.BindEnv("db.username", "APPLESS_DB_USERNAME")
	v.BindEnv("db.password", "APPLESS_DB_PASSWORD")

	v.BindEnv("report.email.username", "APPLESS_SES_USERNAME")
	v.BindEnv("report.email.password", "APPLESS_SES_PASSWORD")
	v.BindEnv("report.discord.bot_token", "DISCORD_BOT_TOKEN")
}

func setDefault(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("mode", consts.ModeStage)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_prefix", "/api")
	v.SetDefault("server.api_version", "v1")
	v.SetDefault("calendar.timezone", consts.DefaultTimezone)
	v.SetDefault("transport.provider", consts.TransportTwilio)
	v.SetDefault("transport.rate_per_second", 1)
	v.SetDefault("transport.burst", 1)
	v.SetDefault("transport.twilio.base_url", consts.TwilioAPIBaseURL)
	v.SetDefault("transport.sns.sms_type", "Transactional")
	v.SetDefault("ledger.backend", consts.LedgerFirestore)
	v.SetDefault("ledger.conditional_write", false)
	v.SetDefault("db.keyspace", consts.AppName)
	v.SetDefault("nudge.batch_size", 10)
	v.SetDefault("nudge.lookback_days", 14)
	v.SetDefault("nudge.lookup_concurrency", 4)
	v.SetDefault("nudge.fan_out_concurrency", 1)
	v.SetDefault("nudge.name_cache_ttl", "5m")
	v.SetDefault("report.email.sender_name", "Appless Nudges")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", "15m")
	v.SetDefault("scheduler.not_before", "18:00")
}

// normalisePrivateKey strips wrapping quotes and turns literal \n sequences
// into newlines, as hosted env editors tend to store PEM keys that way.
func normalisePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, `"`)
	key = strings.TrimSuffix(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Validate checks the settings the process cannot start without. Transport
// and cron secret presence are checked per run instead, see TransportReady.
func (conf *AppConfModel) Validate() error {
	if _, err := time.LoadLocation(conf.Calendar.Timezone); err != nil {
		return fmt.Errorf("invalid calendar.timezone %q: %w", conf.Calendar.Timezone, err)
	}

	switch conf.Ledger.Backend {
	case consts.LedgerFirestore, consts.LedgerMemory:
	case consts.LedgerCassandra:
		if conf.DB.Host == "" {
			return fmt.Errorf("ledger.backend %s requires db.host", consts.LedgerCassandra)
		}
	default:
		return fmt.Errorf("unsupported ledger.backend %q", conf.Ledger.Backend)
	}

	switch conf.Transport.Provider {
	case consts.TransportTwilio, consts.TransportSNS, consts.TransportLog:
	default:
		return fmt.Errorf("unsupported transport.provider %q", conf.Transport.Provider)
	}

	if conf.Nudge.BatchSize <= 0 || conf.Nudge.BatchSize > 30 {
		return fmt.Errorf("nudge.batch_size must be within 1..30, got %d", conf.Nudge.BatchSize)
	}

	if conf.Nudge.LookbackDays < consts.SevereInactiveDays {
		return fmt.Errorf(
			"nudge.lookback_days must be at least %d, got %d", consts.SevereInactiveDays, conf.Nudge.LookbackDays,
		)
	}

	if _, err := cast.ToDurationE(conf.Nudge.NameCacheTTL); err != nil {
		return fmt.Errorf("invalid nudge.name_cache_ttl %q: %w", conf.Nudge.NameCacheTTL, err)
	}

	if conf.Scheduler.Enabled {
		if conf.SchedulerInterval() <= 0 {
			return fmt.Errorf("invalid scheduler.interval %q", conf.Scheduler.Interval)
		}
		if _, err := time.Parse("15:04", conf.Scheduler.NotBefore); err != nil {
			return fmt.Errorf("invalid scheduler.not_before %q: %w", conf.Scheduler.NotBefore, err)
		}
	}

	return nil
}

// TransportReady reports whether the configured message transport has every
// credential it needs.
func (conf *AppConfModel) TransportReady() error {
	t := conf.Transport

	if t.FromNumber == "" && t.Provider != consts.TransportLog {
		return fmt.Errorf("%w: transport.from_number", consts.ErrMissingTransport)
	}

	switch t.Provider {
	case consts.TransportTwilio:
		if t.Twilio.AccountSID == "" || t.Twilio.AuthToken == "" {
			return fmt.Errorf("%w: twilio account_sid/auth_token", consts.ErrMissingTransport)
		}
	case consts.TransportSNS:
		if t.SNS.Region == "" || t.SNS.AccessKeyID == "" || t.SNS.SecretAccessKey == "" {
			return fmt.Errorf("%w: sns region/access_key_id/secret_access_key", consts.ErrMissingTransport)
		}
	case consts.TransportLog:
	default:
		return fmt.Errorf("%w: unsupported provider %q", consts.ErrMissingTransport, t.Provider)
	}

	return nil
}

// NameCacheTTL is the parsed nudge.name_cache_ttl.
func (conf *AppConfModel) NameCacheTTL() time.Duration {
	return cast.ToDuration(conf.Nudge.NameCacheTTL)
}

// SchedulerInterval is the parsed scheduler.interval, zero when unparsable.
func (conf *AppConfModel) SchedulerInterval() time.Duration {
	return cast.ToDuration(conf.Scheduler.Interval)
}

// IsLocal is true when the service runs without external providers.
func (conf *AppConfModel) IsLocal() bool {
	return conf.Mode == consts.ModeLocal
}
