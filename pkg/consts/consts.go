package consts

import "time"

const (
	AppName = "appless"
)

const (
	ModeLocal = "local"
	ModeStage = "stage"
	ModeProd  = "prod"
)

// Firestore collections shared with the web app.
const (
	GroupsCollection      = "groups"
	WorkoutLogsCollection = "workout_logs"
	UsersCollection       = "users"

	GroupNudgeLedger   = "nudges_group"
	PrivateNudgeLedger = "nudges"
)

// Cassandra ledger tables
const (
	GroupNudgeTable   = "nudge_group_ledger"
	PrivateNudgeTable = "nudge_private_ledger"
)

const (
	LedgerFirestore = "firestore"
	LedgerCassandra = "cassandra"
	LedgerMemory    = "memory"
)

const (
	TransportTwilio = "twilio"
	TransportSNS    = "sns"
	TransportLog    = "log"
)

const (
	DefaultDisplayName = "Someone"
	DefaultTimezone    = "America/New_York"
	DateKeyLayout      = "2006-01-02"
)

// Inactivity thresholds in whole days.
const (
	MildInactiveDays   = 2
	SevereInactiveDays = 3
)

const (
	CronSecretHeader = "X-Cron-Secret"
	CronSecretQuery  = "secret"

	// Failed trigger authentications tolerated per client within the window.
	MaxFailedCronAttempts = 10
	FailedCronWindow      = 10 * time.Minute
)

const (
	TwilioAPIBaseURL = "https://api.twilio.com"
)
