package seller

import (
	"context"
	"fmt"

	"broker-office/core/syncengine"
	"broker-office/core/utils"

	"broker-office/feature/seller/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 100

// syncedColumns are the columns the sheet owns. Insert and Update write
// exactly these, never the id or timestamps.
var syncedColumns = []string{"name", "phone", "email", "address", "price", "status", "notes"}

// Store persists seller records in the canonical database table. It
// implements syncengine.Store.
type Store struct {
	db *gorm.DB
}

// NewStore creates a seller store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Insert writes a seller, overwriting the synced columns when the business
// key already exists. The sheet wins: a diff computed against a stale or
// empty baseline may classify a changed row as added, and a plain insert
// would bounce off the unique key and drop the edit.
func (s *Store) Insert(ctx context.Context, record syncengine.Record) error {
	seller := modelFromRecord(record)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seller_number"}},
			DoUpdates: clause.AssignmentColumns(syncedColumns),
		}).
		Create(&seller).Error
	if err != nil {
		return fmt.Errorf("failed to insert seller %s: %w", record.Key, err)
	}
	return nil
}

// Update overwrites the synced columns of an existing seller.
func (s *Store) Update(ctx context.Context, key string, record syncengine.Record) error {
	seller := modelFromRecord(record)
	updates := map[string]any{
		"name":    seller.Name,
		"phone":   seller.Phone,
		"email":   seller.Email,
		"address": seller.Address,
		"price":   seller.Price,
		"status":  seller.Status,
		"notes":   seller.Notes,
	}
	result := s.db.WithContext(ctx).Model(&models.Seller{}).
		Where("seller_number = ?", key).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update seller %s: %w", key, result.Error)
	}
	if result.RowsAffected == 0 {
		// The baseline said the seller exists but the table disagrees;
		// insert so the stores converge.
		return s.Insert(ctx, record)
	}
	return nil
}

// Delete removes a seller by business key.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("seller_number = ?", key).
		Delete(&models.Seller{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete seller %s: %w", key, err)
	}
	return nil
}

// SelectAll loads every seller as a canonical record.
func (s *Store) SelectAll(ctx context.Context) ([]syncengine.Record, error) {
	var sellers []models.Seller
	if err := s.db.WithContext(ctx).Find(&sellers).Error; err != nil {
		return nil, fmt.Errorf("failed to load sellers: %w", err)
	}

	records := make([]syncengine.Record, 0, len(sellers))
	for _, seller := range sellers {
		records = append(records, recordFromModel(seller))
	}
	return records, nil
}

// ReplaceAll swaps the table's contents for the given records in a single
// transaction. Either every record lands or the table keeps its current
// rows, which is what rollback relies on.
func (s *Store) ReplaceAll(ctx context.Context, records []syncengine.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Seller{}).Error; err != nil {
			return fmt.Errorf("failed to clear sellers: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		sellers := make([]models.Seller, 0, len(records))
		for _, record := range records {
			sellers = append(sellers, modelFromRecord(record))
		}
		if err := tx.CreateInBatches(sellers, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to restore sellers: %w", err)
		}
		return nil
	})
}

func modelFromRecord(record syncengine.Record) models.Seller {
	f := record.Fields
	return models.Seller{
		SellerNumber: record.Key,
		Name:         utils.ToString(f["name"]),
		Phone:        utils.ToString(f["phone"]),
		Email:        utils.ToString(f["email"]),
		Address:      utils.ToString(f["address"]),
		Price:        utils.ToFloat(f["price"]),
		Status:       utils.ToString(f["status"]),
		Notes:        utils.ToString(f["notes"]),
	}
}

func recordFromModel(seller models.Seller) syncengine.Record {
	return syncengine.Record{
		Key: seller.SellerNumber,
		Fields: map[string]any{
			"seller_number": seller.SellerNumber,
			"name":          seller.Name,
			"phone":         seller.Phone,
			"email":         seller.Email,
			"address":       seller.Address,
			"price":         seller.Price,
			"status":        seller.Status,
			"notes":         seller.Notes,
		},
	}
}
