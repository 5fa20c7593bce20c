// services/ledger.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"points-reward-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxGrantAttempts bounds retries when another writer bumped the user's version first.
const maxGrantAttempts = 3

var errStaleVersion = errors.New("user row changed concurrently")

// Posting describes one balance change and its audit row.
type Posting struct {
	Type           models.TransactionType
	Amount         int64 // signed, as written to the audit trail
	TotalDelta     int64
	AvailableDelta int64
	Fields         map[string]any // extra user columns written with the balances
	Description    string
	Metadata       map[string]any
	// ReferralBase is what ancestors earn a percentage of; 0 skips distribution.
	ReferralBase int64
}

// MutateFunc runs inside the grant transaction with the locked user row.
// It inserts the activity record and returns the balance change.
type MutateFunc func(tx *gorm.DB, u *models.User) (*Posting, error)

type LedgerService struct {
	DB        *gorm.DB
	Referrals *ReferralService
	Now       func() time.Time
}

func NewLedgerService(db *gorm.DB, referrals *ReferralService) *LedgerService {
	return &LedgerService{DB: db, Referrals: referrals, Now: time.Now}
}

// Grant persists the activity and the balance change atomically, then writes the
// audit row and distributes referral rewards. The last two never fail the grant.
func (s *LedgerService) Grant(ctx context.Context, userID string, mutate MutateFunc) (*models.User, *Posting, error) {
	user, posting, err := postBalance(ctx, s.DB, userID, mutate)
	if err != nil {
		return nil, nil, err
	}

	if err := insertTransaction(s.DB.WithContext(ctx), user.ID, posting); err != nil {
		log.Printf("❌ [LEDGER] audit insert failed for user %s (%s %+d): %v", user.ID, posting.Type, posting.Amount, err)
	}

	if posting.ReferralBase > 0 && s.Referrals != nil {
		s.Referrals.Distribute(ctx, user.ID, posting.ReferralBase, posting.Type)
	}
	return user, posting, nil
}

// postBalance is the locked read, mutate, version-checked write loop shared by
// grants and referral credits.
func postBalance(ctx context.Context, db *gorm.DB, userID string, mutate MutateFunc) (*models.User, *Posting, error) {
	var (
		updated models.User
		posting *Posting
		err     error
	)
	for attempt := 1; attempt <= maxGrantAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var u models.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", userID).First(&u).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUserNotFound
				}
				return storageErr("Database error while fetching user", err)
			}

			p, err := mutate(tx, &u)
			if err != nil {
				return err
			}
			if err := applyPosting(tx, &u, p); err != nil {
				return err
			}
			updated, posting = u, p
			return nil
		})
		if !errors.Is(err, errStaleVersion) {
			break
		}
		log.Printf("🔁 [LEDGER] stale version for user %s, retrying (%d/%d)", userID, attempt, maxGrantAttempts)
	}
	if errors.Is(err, errStaleVersion) {
		return nil, nil, storageErr("Failed to update user", err)
	}
	if err != nil {
		return nil, nil, err
	}
	return &updated, posting, nil
}

// applyPosting writes balances, level and extra fields only if nobody else has
// written the row since it was read. Available points are floored at zero.
func applyPosting(tx *gorm.DB, u *models.User, p *Posting) error {
	newTotal := u.TotalPoints + p.TotalDelta
	newAvailable := u.AvailablePoints + p.AvailableDelta
	if newAvailable < 0 {
		newAvailable = 0
	}

	updates := map[string]any{
		"total_points":     newTotal,
		"available_points": newAvailable,
		"level":            CalculateLevel(newTotal),
		"version":          u.Version + 1,
	}
	for k, v := range p.Fields {
		updates[k] = v
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND version = ?", u.ID, u.Version).
		Updates(updates)
	if res.Error != nil {
		return storageErr("Failed to update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return errStaleVersion
	}

	if err := tx.Where("id = ?", u.ID).First(u).Error; err != nil {
		return storageErr("Failed to reload user", err)
	}
	return nil
}

func insertTransaction(db *gorm.DB, userID string, p *Posting) error {
	row := models.PointsTransaction{
		UserID:      userID,
		Amount:      p.Amount,
		Type:        p.Type,
		Description: p.Description,
		Metadata:    encodeJSON(p.Metadata),
	}
	return db.Create(&row).Error
}

// encodeJSON returns nil for empty input so the column stays NULL.
func encodeJSON(v map[string]any) *string {
	if len(v) == 0 {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("⚠️ [LEDGER] metadata not serializable: %v", err)
		return nil
	}
	s := string(raw)
	return &s
}

// utcDate formats t as the calendar day used for ritual idempotency.
func utcDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
