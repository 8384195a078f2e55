package db

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/JacMa99/appless-workout-mvp/config"
)

// NewCassandraSession connects to the cluster, creating the keyspace and the
// ledger tables when they are missing.
func NewCassandraSession(cfg config.DB) (*gocql.Session, error) {
	// Define the cluster configuration
	clusterConfig := gocql.NewCluster(cfg.Host)
	clusterConfig.Authenticator = gocql.PasswordAuthenticator{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clusterConfig.Consistency = gocql.Quorum
	// lightweight transactions on the ledger
	clusterConfig.SerialConsistency = gocql.LocalSerial
	clusterConfig.ConnectTimeout = time.Second * 10

	session, err := clusterConfig.CreateSession()
	if err != nil {
		return nil, err
	}

	err = session.Query(`CREATE KEYSPACE IF NOT EXISTS ` + cfg.Keyspace + ` WITH REPLICATION = {'class' : 'SimpleStrategy', 'replication_factor' : 1}`).Exec()
	session.Close()
	if err != nil {
		return nil, err
	}

	// Create a new session with the new keyspace
	clusterConfig.Keyspace = cfg.Keyspace
	session, err = clusterConfig.CreateSession()
	if err != nil {
		return nil, err
	}

	if err = createTables(session, cfg.Keyspace); err != nil {
		session.Close()
		return nil, err
	}

	return session, nil
}

func createTables(session *gocql.Session, keyspace string) error {
	for _, table := range dbTableSchemas {
		createTableCmd := fmt.Sprintf(table, keyspace)
		if err := session.Query(createTableCmd).Exec(); err != nil {
			return fmt.Errorf("failed to exec query for db table creation, CMD: %s: %w", createTableCmd, err)
		}
	}

	return nil
}
