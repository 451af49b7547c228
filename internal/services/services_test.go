package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/realtime"
	"github.com/unilak/community/internal/store"
	"github.com/unilak/community/internal/testutil"
	"gorm.io/gorm"
)

var ctx = context.Background()

func newStore(t *testing.T) (*store.Store, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return store.New(db, realtime.NewHub(), nil).WithDependents(models.Dependents()), db
}

func viewerOf(p *models.Profile) identity.Viewer {
	return identity.Viewer{ID: p.ID, Email: p.Email, Role: p.Role}
}

func seedTopic(t *testing.T, db *gorm.DB, name string) (*models.Topic, *models.Subtopic) {
	t.Helper()
	topic := &models.Topic{Name: name}
	require.NoError(t, db.Create(topic).Error)
	sub := &models.Subtopic{TopicID: &topic.ID, Name: name + " sub"}
	require.NoError(t, db.Create(sub).Error)
	return topic, sub
}

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	u, err := uuid.Parse(id)
	require.NoError(t, err)
	return u
}
