package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"points-reward-system/database"
	"points-reward-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memUploader struct {
	objects map[string][]byte
	err     error
}

func (m *memUploader) Upload(_ context.Context, key string, body []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, wallet string, available int64, amounts ...int64) *models.User {
	t.Helper()
	u := &models.User{
		WalletAddress:   wallet,
		ReferralCode:    "KC" + wallet[2:8],
		Level:           1,
		TotalPoints:     available,
		AvailablePoints: available,
	}
	require.NoError(t, db.Create(u).Error)
	for _, a := range amounts {
		require.NoError(t, db.Create(&models.PointsTransaction{UserID: u.ID, Amount: a, Type: models.TxDailyRitual}).Error)
	}
	return u
}

func newReconciler(db *gorm.DB, up ReportUploader, repair bool) *AuditReconciler {
	r := NewAuditReconciler(db, up, repair)
	r.Now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return r
}

func TestReconcilerReportsDrift(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "0xaaaaaa0000000000000000000000000000000000", 150, 100, 50)
	drifted := seedUser(t, db, "0xbbbbbb0000000000000000000000000000000000", 200, 100)

	up := &memUploader{}
	report, err := newReconciler(db, up, false).RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), report.UsersChecked)
	require.Len(t, report.Drifts, 1)
	require.Equal(t, drifted.ID, report.Drifts[0].UserID)
	require.Equal(t, int64(100), report.Drifts[0].Difference)
	require.False(t, report.Drifts[0].Repaired)

	require.Equal(t, "reconciliation/2024-03-01T09-00-00Z.json", report.Key)
	var uploaded Report
	require.NoError(t, json.Unmarshal(up.objects[report.Key], &uploaded))
	require.Len(t, uploaded.Drifts, 1)
}

func TestReconcilerRepairs(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "0xcccccc0000000000000000000000000000000000", 80, 100)

	r := newReconciler(db, nil, true)
	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Repaired)
	require.Equal(t, int64(-20), report.Drifts[0].Difference)

	var fix models.PointsTransaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", u.ID, models.TxReconciliation).First(&fix).Error)
	require.Equal(t, int64(-20), fix.Amount)

	report, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Drifts)
}

func TestReconcilerUploadFailure(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "0xdddddd0000000000000000000000000000000000", 0)

	_, err := newReconciler(db, &memUploader{err: errors.New("bucket gone")}, false).RunOnce(context.Background())
	require.ErrorContains(t, err, "bucket gone")
}
