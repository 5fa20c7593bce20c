// services/users.go
package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"points-reward-system/models"
	"points-reward-system/utils"

	"gorm.io/gorm"
)

// maxCodeAttempts bounds regeneration when a referral code is already taken.
const maxCodeAttempts = 5

type UserService struct {
	DB        *gorm.DB
	Referrals *ReferralService
	Now       func() time.Time
}

func NewUserService(db *gorm.DB, referrals *ReferralService) *UserService {
	return &UserService{DB: db, Referrals: referrals, Now: time.Now}
}

// SignInResult is returned by GetOrCreate.
type SignInResult struct {
	User            *models.User `json:"user"`
	IsNewUser       bool         `json:"isNewUser"`
	ReferralApplied bool         `json:"referralApplied"`
	ReferralError   string       `json:"referralError,omitempty"`
}

// GetByWallet looks a user up by any casing of its address.
func (s *UserService) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).
		Where("wallet_address = ?", utils.NormalizeAddress(wallet)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr("Database error while fetching user", err)
	}
	return &u, nil
}

// DefaultReferralCode is KC followed by address chars 2..8 upper-cased.
func DefaultReferralCode(wallet string) string {
	return "KC" + strings.ToUpper(utils.WalletShortID(wallet))
}

// GetOrCreate returns the user for wallet, provisioning it with the welcome
// bonus on first sight. A referral code is only applied to brand new users; a
// bad code does not block sign-up.
func (s *UserService) GetOrCreate(ctx context.Context, wallet, referralCode string) (*SignInResult, error) {
	if !utils.IsValidEvmAddress(strings.TrimSpace(wallet)) {
		return nil, ErrInvalidWallet
	}
	normalized := utils.NormalizeAddress(wallet)

	existing, err := s.GetByWallet(ctx, normalized)
	if err == nil {
		return &SignInResult{User: existing}, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	result := &SignInResult{IsNewUser: true}
	code := DefaultReferralCode(normalized)
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		user, refErr, err := s.create(ctx, normalized, code, referralCode)
		if err == nil {
			result.User = user
			if referralCode != "" {
				result.ReferralApplied = refErr == nil
				if refErr != nil {
					result.ReferralError = refErr.Error()
				}
			}
			log.Printf("✨ [USERS] new user %s (code %s)", utils.ShortAddress(normalized), user.ReferralCode)
			return result, nil
		}
		if !isDuplicate(err) {
			return nil, storageErr("Failed to create user", err)
		}

		// A concurrent sign-in may have created the same wallet.
		if u, lookupErr := s.GetByWallet(ctx, normalized); lookupErr == nil {
			return &SignInResult{User: u}, nil
		}

		suffix, genErr := utils.GenerateSecureCode(6)
		if genErr != nil {
			return nil, storageErr("Failed to generate referral code", genErr)
		}
		code = "KC" + suffix
		log.Printf("⚠️ [USERS] referral code collision for %s, retrying with %s", utils.ShortAddress(normalized), code)
	}
	return nil, storageErr("Failed to create user", errors.New("referral code space exhausted"))
}

// create inserts the user, its welcome transaction and referral edges in one
// transaction. A rejected referral code is returned as refErr without aborting.
func (s *UserService) create(ctx context.Context, wallet, code, referralCode string) (*models.User, error, error) {
	var (
		user   models.User
		refErr error
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user = models.User{
			WalletAddress:    wallet,
			WalletNumber:     WalletNumber(wallet),
			Level:            1, // stored level starts at 1 regardless of the welcome bonus
			TotalPoints:      WelcomeBonusPoints,
			AvailablePoints:  WelcomeBonusPoints,
			FreeSpins:        WelcomeFreeSpins,
			ActiveMultiplier: 1,
			ReferralCode:     code,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		welcome := &Posting{
			Type:        models.TxWelcomeBonus,
			Amount:      WelcomeBonusPoints,
			Description: "Welcome to Kabbalah Code!",
		}
		if err := insertTransaction(tx, user.ID, welcome); err != nil {
			return err
		}

		if referralCode == "" || s.Referrals == nil {
			return nil
		}
		// savepoint so a rejected code leaves the user row intact
		nestedErr := tx.Transaction(func(nested *gorm.DB) error {
			return s.Referrals.CreateRelationships(nested, &user, referralCode)
		})
		var re *RewardError
		if errors.As(nestedErr, &re) && re.Kind != KindStorage {
			refErr = nestedErr
			return nil
		}
		return nestedErr
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, refErr, nil
}

// TelegramStatus reports whether a Telegram account is linked.
type TelegramStatus struct {
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
}

func (s *UserService) TelegramStatus(ctx context.Context, wallet string) (*TelegramStatus, error) {
	u, err := s.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if u.TelegramUsername != nil && *u.TelegramUsername != "" {
		return &TelegramStatus{Connected: true, Username: *u.TelegramUsername}, nil
	}
	return &TelegramStatus{Connected: false}, nil
}

// TransactionHistoryLimit caps GET /user/transactions.
const TransactionHistoryLimit = 50

// Transactions returns the newest audit rows first. Unknown wallets get an empty list.
func (s *UserService) Transactions(ctx context.Context, wallet string) ([]models.PointsTransaction, error) {
	txs := []models.PointsTransaction{}
	u, err := s.GetByWallet(ctx, wallet)
	if errors.Is(err, ErrUserNotFound) {
		return txs, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", u.ID).
		Order("created_at DESC").
		Limit(TransactionHistoryLimit).
		Find(&txs).Error; err != nil {
		return nil, storageErr("Failed to fetch transactions", err)
	}
	return txs, nil
}

// Profile is the user plus derived, read-time state.
type Profile struct {
	User             *models.User             `json:"user"`
	Progress         LevelProgress            `json:"progress"`
	ActiveMultiplier int                      `json:"activeMultiplier"`
	ActiveBoost      int                      `json:"activeBoost"`
	Achievements     []models.UserAchievement `json:"achievements"`
}

// Profile evaluates boosters against the clock instead of trusting stored values.
func (s *UserService) Profile(ctx context.Context, wallet string) (*Profile, error) {
	u, err := s.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	p := &Profile{
		User:             u,
		Progress:         CalculateLevelProgress(u.TotalPoints),
		ActiveMultiplier: 1,
		Achievements:     []models.UserAchievement{},
	}
	if u.MultiplierActive(now) {
		p.ActiveMultiplier = u.ActiveMultiplier
	}
	if u.BoostActive(now) {
		p.ActiveBoost = u.ActiveBoostPercent
	}
	if err := s.DB.WithContext(ctx).Where("user_id = ?", u.ID).
		Order("awarded_at ASC").Find(&p.Achievements).Error; err != nil {
		return nil, storageErr("Failed to fetch achievements", err)
	}
	return p, nil
}
