package repo

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
)

type Repo struct {
	db   *firestore.Client
	conf *config.AppConfModel
}
type Imply interface {
	DBHealthCheck(context.Context) error
}

// NewRepo
func NewRepo(db *firestore.Client, conf *config.AppConfModel) Imply {
	return &Repo{db: db, conf: conf}
}

// DBHealthCheck reads a single group document to prove Firestore is reachable.
func (repo *Repo) DBHealthCheck(ctx context.Context) error {
	if repo.db == nil {
		return errors.New("firestore client not initialised")
	}

	iter := repo.db.Collection(consts.GroupsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}

	return nil
}
