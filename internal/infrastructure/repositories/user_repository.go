package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/blogauth/domain"
)

// storeTimeout bounds every credential-store and OTP-store operation so a
// stuck store fails the calling request instead of hanging it.
const storeTimeout = 10 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// UserRepositoryImpl implements domain.UserRepository using GORM.
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser is the database model for User.
type DBUser struct {
	ID                  uint       `gorm:"primaryKey"`
	Name                string     `gorm:"size:50"`
	Email               string     `gorm:"uniqueIndex;size:255"`
	PasswordHash        string     `gorm:"column:password"`
	Age                 int        `gorm:"default:18"`
	About               string     `gorm:"size:500"`
	AuthMethod          string     `gorm:"size:16;default:local"`
	IsEmailVerified     bool       `gorm:"index"`
	PendingDeletion     bool       `gorm:"index"`
	RegistrationExpires *time.Time `gorm:"index"`
	LoginAttempts       int
	BlockExpires        *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the table name for GORM.
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository.
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	dbUser := domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByEmail implements domain.UserRepository. The returned record includes
// the credential and lockout fields; callers decide what to expose.
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository.
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return dbToDomain(&dbUser), nil
}

// Update implements domain.UserRepository.
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Save(domainToDB(user)).Error
}

// Delete implements domain.UserRepository. The delete is physical: cleanup
// exists to reclaim storage, not to archive.
func (r *UserRepositoryImpl) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&DBUser{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// MarkVerified implements domain.UserRepository.
func (r *UserRepositoryImpl) MarkVerified(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("email = ?", email).Updates(map[string]interface{}{
		"is_email_verified":    true,
		"registration_expires": nil,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrUserNotFound
	}

	var dbUser DBUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbUser).Error; err != nil {
		return nil, err
	}
	return dbToDomain(&dbUser), nil
}

// ExtendRegistrationWindow implements domain.UserRepository. Only unverified
// accounts are touched; the window has no meaning once verification succeeds.
func (r *UserRepositoryImpl) ExtendRegistrationWindow(ctx context.Context, email string, until time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Model(&DBUser{}).
		Where("email = ? AND is_email_verified = ?", email, false).
		Update("registration_expires", until).Error
}

// RecordLoginSuccess implements domain.UserRepository.
func (r *UserRepositoryImpl) RecordLoginSuccess(ctx context.Context, id uint, at time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).Updates(map[string]interface{}{
		"login_attempts": 0,
		"block_expires":  nil,
		"last_login":     at,
	}).Error
}

// UpdateLockout implements domain.UserRepository.
func (r *UserRepositoryImpl) UpdateLockout(ctx context.Context, id uint, attempts int, blockExpires *time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).Updates(map[string]interface{}{
		"login_attempts": attempts,
		"block_expires":  blockExpires,
	}).Error
}

// UpdatePassword implements domain.UserRepository.
func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ResetCredential implements domain.UserRepository. A completed password
// reset gives the account a clean lockout slate.
func (r *UserRepositoryImpl) ResetCredential(ctx context.Context, email, passwordHash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&DBUser{}).Where("email = ?", email).Updates(map[string]interface{}{
		"password":       passwordHash,
		"login_attempts": 0,
		"block_expires":  nil,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// BindAuthMethod implements domain.UserRepository.
func (r *UserRepositoryImpl) BindAuthMethod(ctx context.Context, id uint, method string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", id).Update("auth_method", method).Error
}

// FindExpiredUnverified implements domain.UserRepository.
func (r *UserRepositoryImpl) FindExpiredUnverified(ctx context.Context, now time.Time) ([]*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var dbUsers []DBUser
	err := r.db.WithContext(ctx).
		Where("is_email_verified = ? AND pending_deletion = ? AND registration_expires IS NOT NULL AND registration_expires <= ?",
			false, false, now).
		Find(&dbUsers).Error
	if err != nil {
		return nil, err
	}

	users := make([]*domain.User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, dbToDomain(&dbUsers[i]))
	}
	return users, nil
}

// MarkPendingDeletion implements domain.UserRepository. The conditional
// update is the defense against a manual trigger and the periodic sweep
// deleting the same account.
func (r *UserRepositoryImpl) MarkPendingDeletion(ctx context.Context, id uint) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&DBUser{}).
		Where("id = ? AND pending_deletion = ?", id, false).
		Update("pending_deletion", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UnverifiedStats implements domain.UserRepository.
func (r *UserRepositoryImpl) UnverifiedStats(ctx context.Context, now time.Time) (*domain.CleanupStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	stats := &domain.CleanupStats{}
	db := r.db.WithContext(ctx).Model(&DBUser{})

	if err := db.Session(&gorm.Session{}).
		Where("is_email_verified = ?", false).
		Count(&stats.TotalUnverified).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("is_email_verified = ? AND registration_expires IS NOT NULL AND registration_expires <= ?", false, now).
		Count(&stats.Expired).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("is_email_verified = ? AND registration_expires IS NOT NULL AND registration_expires > ?", false, now).
		Count(&stats.PendingExpiry).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:                  user.ID,
		Name:                user.Name,
		Email:               user.Email,
		PasswordHash:        user.PasswordHash,
		Age:                 user.Age,
		About:               user.About,
		AuthMethod:          user.AuthMethod,
		IsEmailVerified:     user.IsEmailVerified,
		PendingDeletion:     user.PendingDeletion,
		RegistrationExpires: user.RegistrationExpires,
		LoginAttempts:       user.LoginAttempts,
		BlockExpires:        user.BlockExpires,
		LastLogin:           user.LastLogin,
	}
}

func dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:                  dbUser.ID,
		Name:                dbUser.Name,
		Email:               dbUser.Email,
		PasswordHash:        dbUser.PasswordHash,
		Age:                 dbUser.Age,
		About:               dbUser.About,
		AuthMethod:          dbUser.AuthMethod,
		IsEmailVerified:     dbUser.IsEmailVerified,
		PendingDeletion:     dbUser.PendingDeletion,
		RegistrationExpires: dbUser.RegistrationExpires,
		LoginAttempts:       dbUser.LoginAttempts,
		BlockExpires:        dbUser.BlockExpires,
		LastLogin:           dbUser.LastLogin,
		CreatedAt:           dbUser.CreatedAt,
		UpdatedAt:           dbUser.UpdatedAt,
	}
}

var _ domain.UserRepository = (*UserRepositoryImpl)(nil)
