package repositories

import (
	"errors"

	"chessconnect/api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrChessUsernameTaken = errors.New("chess username already linked to another user")
)

// GoogleIdentity is what the identity subsystem hands over after a successful
// OAuth exchange.
type GoogleIdentity struct {
	GoogleID string
	Email    string
	Name     string
}

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	err := r.DB.Preload("ChessInfo").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByGoogleID(googleID string) (*models.User, error) {
	var user models.User
	err := r.DB.Preload("ChessInfo").Where("google_id = ?", googleID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByChessUsername(chessUsername string) (*models.User, error) {
	var user models.User
	err := r.DB.Where("chess_username = ?", chessUsername).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertGoogleUser creates the user on first sign-in and refreshes email and
// display name on later ones. Concurrent first sign-ins resolve to one row.
func (r *UserRepository) UpsertGoogleUser(identity GoogleIdentity) (*models.User, error) {
	user := &models.User{GoogleID: identity.GoogleID, Email: identity.Email, Name: identity.Name}
	err := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "google_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return nil, err
	}
	return r.GetUserByGoogleID(identity.GoogleID)
}

// LinkChessUsername sets the claimed username on the user. It fails with
// ErrChessUsernameTaken when a different user already holds it; relinking the
// same user is a no-op.
func (r *UserRepository) LinkChessUsername(userID uint, chessUsername string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var holder models.User
		err := tx.Where("chess_username = ? AND id <> ?", chessUsername, userID).First(&holder).Error
		if err == nil {
			return ErrChessUsernameTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("chess_username", chessUsername)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	// the unique index still catches a concurrent claim that slipped past the check
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrChessUsernameTaken
	}
	return err
}

// ListLinkedUsers returns every user with a claimed username.
func (r *UserRepository) ListLinkedUsers() ([]models.User, error) {
	users := []models.User{}
	err := r.DB.Select("id", "chess_username").
		Where("chess_username IS NOT NULL AND chess_username <> ''").
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// ListLinkedUsersWithoutChessInfo returns linked users that have no cached ratings yet.
func (r *UserRepository) ListLinkedUsersWithoutChessInfo() ([]models.User, error) {
	users := []models.User{}
	err := r.DB.Select("users.id", "users.chess_username").
		Joins("LEFT JOIN chess_infos ON chess_infos.user_id = users.id").
		Where("users.chess_username IS NOT NULL AND users.chess_username <> ''").
		Where("chess_infos.id IS NULL").
		Order("users.id ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) CountUsers() (int64, error) {
	var count int64
	err := r.DB.Model(&models.User{}).Count(&count).Error
	return count, err
}

// DeleteUser removes the user and its cached ratings. The delete is permanent so
// the Google id and Chess.com username become claimable again.
func (r *UserRepository) DeleteUser(userID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.ChessInfo{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&models.User{}, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
