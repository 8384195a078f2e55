package entities

import "time"

// NudgeKind selects the ledger a dedup entry lives in.
type NudgeKind string

const (
	NudgeGroupSupport   NudgeKind = "group_support"
	NudgePrivateCheckIn NudgeKind = "private_checkin"
)

// ScopeKey addresses one ledger slot: the group plus the member the nudge is about.
func ScopeKey(groupID, subjectUID string) string {
	return groupID + "_" + subjectUID
}

// LedgerEntry is the per (kind, scope) dedup record. Date is the day the
// nudge last fired; the rest is audit context.
type LedgerEntry struct {
	Date         string    `json:"date" firestore:"date"`
	GroupID      string    `json:"groupId" firestore:"groupId"`
	SubjectUID   string    `json:"uid" firestore:"uid"`
	SubjectName  string    `json:"name,omitempty" firestore:"name,omitempty"`
	DaysInactive int       `json:"daysInactive" firestore:"daysInactive"`
	SentAt       time.Time `json:"sentAt" firestore:"sentAt"`
	RunID        string    `json:"runId,omitempty" firestore:"runId,omitempty"`
}

// FiredOn reports whether the entry blocks a send on day. Entries from any
// other day never block.
func (e *LedgerEntry) FiredOn(day string) bool {
	return e != nil && e.Date != "" && e.Date == day
}

// NudgeRunSummary is returned to the scheduler after a batch run.
type NudgeRunSummary struct {
	OK               bool   `json:"ok"`
	Today            string `json:"today"`
	RunID            string `json:"runId"`
	DryRun           bool   `json:"dryRun"`
	Groups           int    `json:"groups"`
	Considered       int    `json:"considered"`
	Sent             int    `json:"sent"`
	Failed           int    `json:"failed"`
	GroupTriggered   int    `json:"groupTriggered"`
	GroupSent        int    `json:"groupSent"`
	GroupDeduped     int    `json:"groupDeduped"`
	PrivateTriggered int    `json:"privateTriggered"`
	PrivateSent      int    `json:"privateSent"`
	PrivateDeduped   int    `json:"privateDeduped"`
	LedgerErrors     int    `json:"ledgerErrors"`
	GroupErrors      int    `json:"groupErrors"`
}

// NudgeDiagnostics answers ?debug=1 without touching any group.
type NudgeDiagnostics struct {
	OK                          bool   `json:"ok"`
	Debug                       bool   `json:"debug"`
	GoVersion                   string `json:"go"`
	Mode                        string `json:"mode"`
	Timezone                    string `json:"timezone"`
	Today                       string `json:"today"`
	HasFirebaseCredentials      bool   `json:"hasFirebaseCredentials"`
	FirebaseCredentialsDecodeOk bool   `json:"firebaseCredentialsDecodeOk"`
	FirebaseCredentialsJSONOk   bool   `json:"firebaseCredentialsJsonOk"`
	HasPrivateKey               bool   `json:"hasPrivateKey"`
	PrivateKeyHasLiteralSlashN  bool   `json:"privateKeyHasLiteralSlashN"`
	LedgerBackend               string `json:"ledgerBackend"`
	TransportProvider           string `json:"transportProvider"`
	TransportReady              bool   `json:"transportReady"`
}
