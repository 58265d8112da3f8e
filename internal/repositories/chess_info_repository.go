package repositories

import (
	"errors"
	"fmt"

	"chessconnect/api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrChessInfoNotFound = errors.New("chess info not found")

// Mode is a rating column that can be ranked.
type Mode string

const (
	ModeBlitz  Mode = "blitz"
	ModeBullet Mode = "bullet"
	ModeRapid  Mode = "rapid"
)

func (m Mode) column() (string, error) {
	switch m {
	case ModeBlitz, ModeBullet, ModeRapid:
		return string(m), nil
	}
	return "", fmt.Errorf("unknown rating mode %q", m)
}

type ChessInfoRepository struct {
	DB *gorm.DB
}

// Upsert inserts or fully replaces the ratings row owned by info.UserID.
func (r *ChessInfoRepository) Upsert(info *models.ChessInfo) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"blitz", "bullet", "rapid", "puzzle", "updated_at"}),
	}).Create(info).Error
}

func (r *ChessInfoRepository) GetByUserID(userID uint) (*models.ChessInfo, error) {
	var info models.ChessInfo
	err := r.DB.Where("user_id = ?", userID).First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChessInfoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ListRatings loads the three ranked columns of every stored row.
func (r *ChessInfoRepository) ListRatings() ([]models.ChessInfo, error) {
	infos := []models.ChessInfo{}
	err := r.DB.Select("blitz", "bullet", "rapid").Find(&infos).Error
	return infos, err
}

func (r *ChessInfoRepository) Highest() (models.HighestRatings, error) {
	var highest models.HighestRatings
	err := r.DB.Model(&models.ChessInfo{}).
		Select("COALESCE(MAX(blitz), 0) AS blitz, COALESCE(MAX(bullet), 0) AS bullet, COALESCE(MAX(rapid), 0) AS rapid").
		Scan(&highest).Error
	return highest, err
}

func (r *ChessInfoRepository) AverageRapid() (float64, error) {
	var avg float64
	err := r.DB.Model(&models.ChessInfo{}).Select("COALESCE(AVG(rapid), 0)").Row().Scan(&avg)
	return avg, err
}

// Top returns the n best ratings for mode. Equal ratings keep insertion order.
func (r *ChessInfoRepository) Top(mode Mode, n int) ([]models.LeaderboardEntry, error) {
	col, err := mode.column()
	if err != nil {
		return nil, err
	}

	entries := []models.LeaderboardEntry{}
	err = r.DB.Table("chess_infos").
		Select(fmt.Sprintf("users.chess_username AS chess_username, users.name AS name, chess_infos.%s AS rating", col)).
		Joins("JOIN users ON users.id = chess_infos.user_id AND users.deleted_at IS NULL").
		Order(fmt.Sprintf("chess_infos.%s DESC", col)).
		Order("chess_infos.id ASC").
		Limit(n).
		Scan(&entries).Error
	return entries, err
}
