package repo

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cast"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/cache"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
)

type UserRepo struct {
	db    *firestore.Client
	conf  *config.AppConfModel
	names *cache.DisplayNameCache
}

// UserRepoImply resolves profile data kept in users/{uid}.
type UserRepoImply interface {
	// DisplayNames returns a name for every uid, defaulting to "Someone".
	DisplayNames(ctx context.Context, uids []string) (map[string]string, error)
}

func NewUserRepo(db *firestore.Client, conf *config.AppConfModel) UserRepoImply {
	return &UserRepo{
		db:    db,
		conf:  conf,
		names: cache.NewDisplayNameCache(conf.NameCacheTTL()),
	}
}

func (repo *UserRepo) DisplayNames(ctx context.Context, uids []string) (map[string]string, error) {
	names, missing := repo.names.Lookup(uids)
	if len(missing) == 0 {
		return names, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(missing))
	for _, uid := range missing {
		refs = append(refs, repo.db.Collection(consts.UsersCollection).Doc(uid))
	}

	snaps, err := repo.db.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to read user profiles: %w", err)
	}

	for _, snap := range snaps {
		var data map[string]interface{}
		if snap.Exists() {
			data = snap.Data()
		}
		names[snap.Ref.ID] = repo.resolve(snap.Ref.ID, data)
	}

	return names, nil
}

// resolve reads the profile's display name. Only names that are set get
// cached, so a profile filled in later shows up on the next run.
func (repo *UserRepo) resolve(uid string, profile map[string]interface{}) string {
	name := strings.TrimSpace(cast.ToString(profile["displayName"]))
	if name == "" {
		return consts.DefaultDisplayName
	}

	repo.names.Add(uid, name)
	return name
}
