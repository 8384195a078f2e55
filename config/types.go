package config

type AppConfModel struct {
	LogLevel  string    `mapstructure:"log_level"`
	Mode      string    `mapstructure:"mode"`
	Server    Server    `mapstructure:"server"`
	Calendar  Calendar  `mapstructure:"calendar"`
	Cron      Cron      `mapstructure:"cron"`
	Firebase  Firebase  `mapstructure:"firebase"`
	Transport Transport `mapstructure:"transport"`
	Ledger    Ledger    `mapstructure:"ledger"`
	DB        DB        `mapstructure:"db"`
	Nudge     Nudge     `mapstructure:"nudge"`
	Report    Report    `mapstructure:"report"`
	Scheduler Scheduler `mapstructure:"scheduler"`
}

type Server struct {
	Port       int    `mapstructure:"port"`
	APIPrefix  string `mapstructure:"api_prefix"`
	APIVersion string `mapstructure:"api_version"`
	// TrustedProxies may set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type Calendar struct {
	Timezone string `mapstructure:"timezone"`
}

type Cron struct {
	Secret string `mapstructure:"secret"`
}

type Firebase struct {
	ProjectID         string `mapstructure:"project_id"`
	CredentialsFile   string `mapstructure:"credentials_file"`
	ServiceAccountB64 string `mapstructure:"service_account_b64"`
	ClientEmail       string `mapstructure:"client_email"`
	PrivateKey        string `mapstructure:"private_key"`
}

type Transport struct {
	Provider      string  `mapstructure:"provider"`
	FromNumber    string  `mapstructure:"from_number"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	Twilio        Twilio  `mapstructure:"twilio"`
	SNS           SNS     `mapstructure:"sns"`
}

type Twilio struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	BaseURL    string `mapstructure:"base_url"`
}

type SNS struct {
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SMSType         string `mapstructure:"sms_type"`
}

type Ledger struct {
	Backend          string `mapstructure:"backend"`
	ConditionalWrite bool   `mapstructure:"conditional_write"`
}

type DB struct {
	Host     string `mapstructure:"host"`
	Keyspace string `mapstructure:"keyspace"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Nudge struct {
	BatchSize         int    `mapstructure:"batch_size"`
	LookbackDays      int    `mapstructure:"lookback_days"`
	LookupConcurrency int    `mapstructure:"lookup_concurrency"`
	FanOutConcurrency int    `mapstructure:"fan_out_concurrency"`
	NameCacheTTL      string `mapstructure:"name_cache_ttl"`
}

type Report struct {
	Email   EmailReport   `mapstructure:"email"`
	Discord DiscordReport `mapstructure:"discord"`
}

type EmailReport struct {
	Enabled    bool     `mapstructure:"enabled"`
	Region     string   `mapstructure:"region"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from"`
	SenderName string   `mapstructure:"sender_name"`
	To         []string `mapstructure:"to"`
}

type DiscordReport struct {
	Enabled   bool   `mapstructure:"enabled"`
	BotToken  string `mapstructure:"bot_token"`
	ChannelID string `mapstructure:"channel_id"`
}

// Scheduler drives runs from inside the process when no external cron is
// available. NotBefore is a wall-clock "HH:MM" in the calendar timezone.
type Scheduler struct {
	Enabled   bool   `mapstructure:"enabled"`
	Interval  string `mapstructure:"interval"`
	NotBefore string `mapstructure:"not_before"`
}
