// Package repository buffers StepRecord and EfficiencyEstimateRecord rows
// to a local SQLite database ahead of upload,
// mirroring the donor's repository package (same AutoMigrate-on-open,
// upload-attempt-count bookkeeping shape).
package repository

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cepro/battsched/telemetry"
)

// Repository stores telemetry to the local file system (sqlite) before it
// is uploaded to the cloud.
type Repository struct {
	db *gorm.DB
}

// New opens (creating if necessary) the sqlite database at path and
// migrates its schema.
func New(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.AutoMigrate(&StoredStepRecord{}, &StoredEfficiencyEstimateRecord{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// convertRecordsForStorage returns the equivalent "stored type" (which adds
// an upload-attempt count) for the given records.
func (r *Repository) convertRecordsForStorage(records interface{}) interface{} {
	switch typed := records.(type) {

	case []telemetry.StepRecord:
		stored := make([]StoredStepRecord, 0, len(typed))
		for _, rec := range typed {
			stored = append(stored, newStoredStepRecord(rec))
		}
		return stored

	case []telemetry.EfficiencyEstimateRecord:
		stored := make([]StoredEfficiencyEstimateRecord, 0, len(typed))
		for _, rec := range typed {
			stored = append(stored, newStoredEfficiencyEstimateRecord(rec))
		}
		return stored

	default:
		panic(fmt.Sprintf("unknown record type: '%T'", records))
	}
}

// ConvertStoredToRecords returns the original record type from the given
// stored records.
func (r *Repository) ConvertStoredToRecords(storedRecords interface{}) interface{} {
	switch typed := storedRecords.(type) {

	case []StoredStepRecord:
		records := make([]telemetry.StepRecord, 0, len(typed))
		for _, stored := range typed {
			records = append(records, stored.StepRecord)
		}
		return records

	case []StoredEfficiencyEstimateRecord:
		records := make([]telemetry.EfficiencyEstimateRecord, 0, len(typed))
		for _, stored := range typed {
			records = append(records, stored.EfficiencyEstimateRecord)
		}
		return records

	default:
		panic(fmt.Sprintf("unknown stored record type: '%T'", storedRecords))
	}
}

// StoreRecords adds the given records (of any persistable record type) into
// the database with the upload attempt count starting at zero.
func (r *Repository) StoreRecords(records interface{}) error {
	stored := r.convertRecordsForStorage(records)
	result := r.db.Create(stored)
	return result.Error
}

// DeleteRecords removes the given records from the database.
func (r *Repository) DeleteRecords(records interface{}) error {
	result := r.db.Delete(&records)
	return result.Error
}

// GetStepRecords returns up to limit buffered step records, least-attempted
// first and, among equal attempt counts, most recent interval first.
func (r *Repository) GetStepRecords(limit int) ([]StoredStepRecord, error) {
	var records []StoredStepRecord

	query := r.db.Limit(limit).Order("upload_attempt_count asc, interval_start desc")
	result := query.Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// GetEfficiencyEstimateRecords returns up to limit buffered efficiency
// estimate records, least-attempted first and, among equal attempt counts,
// most recent first.
func (r *Repository) GetEfficiencyEstimateRecords(limit int) ([]StoredEfficiencyEstimateRecord, error) {
	var records []StoredEfficiencyEstimateRecord

	query := r.db.Limit(limit).Order("upload_attempt_count asc, time desc")
	result := query.Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// IncrementUploadAttemptCount bumps the upload attempt count for the given
// records after a failed upload.
func (r *Repository) IncrementUploadAttemptCount(records interface{}) error {
	result := r.db.Model(records).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1))
	return result.Error
}
