package repo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cast"
	"google.golang.org/api/iterator"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

type GroupRepo struct {
	db   *firestore.Client
	conf *config.AppConfModel
}

// GroupRepoImply reads group rosters. Membership itself is owned by the web app.
type GroupRepoImply interface {
	ListGroups(context.Context) ([]entities.Group, error)
}

func NewGroupRepo(db *firestore.Client, conf *config.AppConfModel) GroupRepoImply {
	return &GroupRepo{db: db, conf: conf}
}

func (repo *GroupRepo) ListGroups(ctx context.Context) ([]entities.Group, error) {
	log := utilities.NewLogger("ListGroups")

	iter := repo.db.Collection(consts.GroupsCollection).Documents(ctx)
	defer iter.Stop()

	groups := make([]entities.Group, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate groups: %w", err)
		}

		groups = append(groups, groupFromDoc(snap.Ref.ID, snap.Data()))
	}

	log.Debugf("loaded %d groups", len(groups))

	return groups, nil
}

// groupFromDoc is lenient: fields of the wrong shape read as empty.
func groupFromDoc(id string, data map[string]interface{}) entities.Group {
	group := entities.Group{
		ID:           id,
		Name:         cast.ToString(data["name"]),
		MemberIDs:    []string{},
		MemberPhones: map[string]string{},
		MemberNames:  map[string]string{},
	}

	if ids, ok := data["memberIds"].([]interface{}); ok {
		group.MemberIDs = utilities.UniqueStrings(cast.ToStringSlice(ids))
	}

	if phones, ok := data["memberPhones"].(map[string]interface{}); ok {
		group.MemberPhones = cast.ToStringMapString(phones)
	}

	if names, ok := data["memberNames"].(map[string]interface{}); ok {
		group.MemberNames = cast.ToStringMapString(names)
	}

	return group
}
