package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "hawltrack/internal/errors"
	"hawltrack/internal/models"
)

// aggregationService computes zakatable wealth from the ledger.
type aggregationService struct {
	db *gorm.DB
}

// NewAggregationService creates a new AggregationServicer.
func NewAggregationService(db *gorm.DB) AggregationServicer {
	return &aggregationService{db: db}
}

// Aggregate sums the user's zakatable assets and subtracts deductible
// liabilities when the user's settings say so. Always reads the current
// ledger; single pass over bounded data.
func (s *aggregationService) Aggregate(userID string) (*WealthSummary, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totalWealth, err := s.sum(userID, "kind = ?", models.LedgerKindAsset)
	if err != nil {
		return nil, err
	}
	totalLiabilities, err := s.sum(userID, "kind = ?", models.LedgerKindLiability)
	if err != nil {
		return nil, err
	}
	zakatableAssets, err := s.sum(userID, "kind = ? AND zakatable = ?", models.LedgerKindAsset, true)
	if err != nil {
		return nil, err
	}

	zakatable := zakatableAssets
	if user.DeductLiabilities {
		deductible, err := s.sum(userID, "kind = ? AND deductible = ?", models.LedgerKindLiability, true)
		if err != nil {
			return nil, err
		}
		zakatable = zakatable.Sub(deductible)
	}
	// Debts can exceed assets; zakatable wealth never goes below zero.
	if zakatable.IsNegative() {
		zakatable = decimal.Zero
	}

	return &WealthSummary{
		TotalWealth:      totalWealth,
		TotalLiabilities: totalLiabilities,
		ZakatableWealth:  zakatable,
	}, nil
}

// sum runs one COALESCE(SUM(amount), 0) query over the user's ledger.
func (s *aggregationService) sum(userID string, query string, args ...any) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.Model(&models.LedgerItem{}).
		Where("user_id = ?", userID).
		Where(query, args...).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// Snapshot returns the user's current ledger items as breakdown entries,
// used to freeze an asset breakdown onto a record at finalization.
func (s *aggregationService) Snapshot(userID string) ([]BreakdownItem, error) {
	var items []models.LedgerItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	breakdown := make([]BreakdownItem, 0, len(items))
	for i := range items {
		breakdown = append(breakdown, BreakdownItem{
			LedgerItemID: items[i].ID,
			Name:         items[i].Name,
			Kind:         items[i].Kind,
			Category:     items[i].Category,
			Amount:       items[i].Amount,
			Zakatable:    items[i].Zakatable,
			Deductible:   items[i].Deductible,
		})
	}
	return breakdown, nil
}
