package db

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// NewFirestoreClient initialises the firebase admin app and returns its
// Firestore client. Credentials are taken, in order, from a base64 service
// account blob, a credentials file, inline client email + private key, or the
// ambient application default credentials.
func NewFirestoreClient(ctx context.Context, cfg config.Firebase) (*firestore.Client, error) {
	log := utilities.NewLogger("NewFirestoreClient")

	opts, source, err := firebaseClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log.Infof("using firebase credentials from %s", source)

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return client, nil
}

func firebaseClientOptions(cfg config.Firebase) ([]option.ClientOption, string, error) {
	switch {
	case cfg.ServiceAccountB64 != "":
		raw, err := DecodeServiceAccount(cfg.ServiceAccountB64)
		if err != nil {
			return nil, "", err
		}
		return []option.ClientOption{option.WithCredentialsJSON(raw)}, "service_account_b64", nil

	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, cfg.CredentialsFile, nil

	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		if cfg.ProjectID == "" {
			return nil, "", fmt.Errorf("firebase.project_id is required with client_email/private_key")
		}
		raw, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"project_id":   cfg.ProjectID,
			"client_email": cfg.ClientEmail,
			"private_key":  cfg.PrivateKey,
			"token_uri":    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to build service account json: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(raw)}, "client_email/private_key", nil

	default:
		return nil, "application default credentials", nil
	}
}

// DecodeServiceAccount decodes a base64 service account blob, tolerating
// whitespace and line breaks inside it.
func DecodeServiceAccount(b64 string) ([]byte, error) {
	cleaned := strings.Join(strings.Fields(b64), "")

	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to decode firebase service account: %w", err)
	}

	return raw, nil
}

// CredentialReport describes what can be learned about the configured
// credentials without contacting Google.
type CredentialReport struct {
	HasCredentials             bool
	DecodeOk                   bool
	JSONOk                     bool
	HasPrivateKey              bool
	PrivateKeyHasLiteralSlashN bool
}

func InspectCredentials(cfg config.Firebase) CredentialReport {
	report := CredentialReport{
		HasCredentials: cfg.ServiceAccountB64 != "" || cfg.CredentialsFile != "" ||
			(cfg.ClientEmail != "" && cfg.PrivateKey != ""),
	}

	if cfg.ServiceAccountB64 == "" {
		report.HasPrivateKey = strings.Contains(cfg.PrivateKey, "BEGIN")
		report.PrivateKeyHasLiteralSlashN = strings.Contains(cfg.PrivateKey, `\n`)
		return report
	}

	raw, err := DecodeServiceAccount(cfg.ServiceAccountB64)
	if err != nil {
		return report
	}
	report.DecodeOk = true

	var account struct {
		PrivateKey string `json:"private_key"`
	}
	if err = json.Unmarshal(raw, &account); err != nil {
		return report
	}
	report.JSONOk = true
	report.HasPrivateKey = strings.Contains(account.PrivateKey, "BEGIN")
	report.PrivateKeyHasLiteralSlashN = strings.Contains(account.PrivateKey, `\n`)

	return report
}
