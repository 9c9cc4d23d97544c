package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warelane/inventory_backend/utils"
)

// identifier series. counters are scoped per (series, year)
const (
	SeriesPurchaseOrder = "PO"
	SeriesSku           = "SKU"
)

// NumberSequence is allocation state, not a business entity. One row per
// (series, year) scope holding the last issued number.
type NumberSequence struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Series     string    `gorm:"size:20;not null;uniqueIndex:idx_number_sequences_scope" json:"series"`
	Year       int       `gorm:"not null;uniqueIndex:idx_number_sequences_scope" json:"year"`
	LastNumber int64     `gorm:"not null;default:0" json:"last_number"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NextSequence issues the next number in the (series, year) scope. The increment is
// an atomic read-modify-write on the counter row; a missing counter is seeded at 1,
// and losing the seed race falls back to the increment path. Numbers are never
// reused; a rolled-back caller leaves a gap, which is permitted.
func NextSequence(tx *gorm.DB, series string, year int) (int64, error) {
	for attempt := 0; attempt < 3; attempt++ {
		res := tx.Model(&NumberSequence{}).
			Where("series = ? AND year = ?", series, year).
			UpdateColumn("last_number", gorm.Expr("last_number + ?", 1))
		if res.Error != nil {
			return 0, utils.NewTransientError(res.Error)
		}
		if res.RowsAffected > 0 {
			var seq NumberSequence
			if err := tx.Where("series = ? AND year = ?", series, year).First(&seq).Error; err != nil {
				return 0, utils.NewTransientError(err)
			}
			return seq.LastNumber, nil
		}

		// cold start for this scope
		err := tx.Create(&NumberSequence{Series: series, Year: year, LastNumber: 1}).Error
		if err == nil {
			return 1, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, utils.NewTransientError(err)
		}
		// another caller won the create; retry the increment path
	}
	return 0, utils.NewTransientError(errors.New("number sequence contention"))
}

// FormatIdentifier renders "<PREFIX>-<year>-<zero-padded 5-digit sequence>".
func FormatIdentifier(series string, year int, number int64) string {
	return fmt.Sprintf("%s-%d-%05d", series, year, number)
}

// NextIdentifier allocates and formats in one step.
func NextIdentifier(tx *gorm.DB, series string, year int) (string, error) {
	number, err := NextSequence(tx, series, year)
	if err != nil {
		return "", err
	}
	return FormatIdentifier(series, year, number), nil
}
