// workers/reconciler.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"points-reward-system/models"
	"points-reward-system/services"
	"points-reward-system/utils"

	"gorm.io/gorm"
)

// ReportUploader stores a finished reconciliation report.
type ReportUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Drift is one user whose spendable balance disagrees with the audit trail.
type Drift struct {
	UserID          string `json:"user_id"`
	WalletAddress   string `json:"wallet_address"`
	AvailablePoints int64  `json:"available_points"`
	LedgerSum       int64  `json:"ledger_sum"`
	Difference      int64  `json:"difference"`
	Repaired        bool   `json:"repaired"`
}

type Report struct {
	GeneratedAt  time.Time `json:"generated_at"`
	UsersChecked int64     `json:"users_checked"`
	Drifts       []Drift   `json:"drifts"`
	Repaired     int       `json:"repaired"`
	Key          string    `json:"-"`
}

// AuditReconciler compares available_points with the sum of each user's
// points_transactions. Audit inserts are best effort, so gaps are expected.
type AuditReconciler struct {
	DB       *gorm.DB
	Uploader ReportUploader // optional
	Repair   bool
	Now      func() time.Time
}

func NewAuditReconciler(db *gorm.DB, uploader ReportUploader, repair bool) *AuditReconciler {
	return &AuditReconciler{DB: db, Uploader: uploader, Repair: repair, Now: time.Now}
}

// RunOnce scans every user, optionally writes a reconciliation row per drift,
// and uploads the report when an uploader is configured.
func (r *AuditReconciler) RunOnce(ctx context.Context) (*Report, error) {
	report := &Report{GeneratedAt: r.Now().UTC(), Drifts: []Drift{}}

	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&report.UsersChecked).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var drifts []Drift
	if err := r.DB.WithContext(ctx).Raw(`
		SELECT u.id AS user_id, u.wallet_address, u.available_points,
		       COALESCE(SUM(t.amount), 0) AS ledger_sum
		FROM users u
		LEFT JOIN points_transactions t ON t.user_id = u.id
		GROUP BY u.id, u.wallet_address, u.available_points
		HAVING u.available_points <> COALESCE(SUM(t.amount), 0)
		ORDER BY u.id
	`).Scan(&drifts).Error; err != nil {
		return nil, fmt.Errorf("failed to scan ledger drift: %w", err)
	}

	for i := range drifts {
		d := &drifts[i]
		d.Difference = d.AvailablePoints - d.LedgerSum
		log.Printf("🔎 [RECONCILE] %s balance %d, ledger %d (%+d)",
			utils.ShortAddress(d.WalletAddress), d.AvailablePoints, d.LedgerSum, d.Difference)

		if !r.Repair {
			continue
		}
		row := models.PointsTransaction{
			UserID:      d.UserID,
			Amount:      d.Difference,
			Type:        models.TxReconciliation,
			Description: fmt.Sprintf("Ledger reconciliation (%+d)", d.Difference),
		}
		if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
			log.Printf("❌ [RECONCILE] repair failed for %s: %v", d.UserID, err)
			continue
		}
		d.Repaired = true
		report.Repaired++
	}
	report.Drifts = append(report.Drifts, drifts...)

	if r.Uploader != nil {
		body, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return report, fmt.Errorf("failed to encode report: %w", err)
		}
		report.Key = fmt.Sprintf("reconciliation/%s.json", report.GeneratedAt.Format("2006-01-02T15-04-05Z"))
		if err := r.Uploader.Upload(ctx, report.Key, body, "application/json"); err != nil {
			return report, err
		}
	}

	log.Printf("✅ [RECONCILE] checked %d users, %d drifted, %d repaired",
		report.UsersChecked, len(report.Drifts), report.Repaired)
	return report, nil
}

// Job wraps RunOnce for the maintenance scheduler.
func (r *AuditReconciler) Job(every time.Duration) services.MaintenanceJob {
	return services.MaintenanceJob{
		Name:  "ledger-reconciliation",
		Every: every,
		Run: func(ctx context.Context) {
			if _, err := r.RunOnce(ctx); err != nil {
				log.Printf("❌ [RECONCILE] run failed: %v", err)
			}
		},
	}
}
