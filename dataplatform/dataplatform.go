// Package dataplatform buffers optimizer step and efficiency-estimate
// records to a local SQLite-backed repository and uploads them to Supabase
// on a ticker, retrying previously failed uploads best-effort.
//
// Grounded on the donor's data_platform package: channel-fed slices of
// fresh records, the same fresh-then-old upload ordering, the same
// best-effort failure handling.
package dataplatform

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/cepro/battsched/repository"
	"github.com/cepro/battsched/supabase"
	"github.com/cepro/battsched/telemetry"
)

// DefaultMaxUploadAttempts is the upload-attempt limit New stores on a
// DataPlatform. The upload loop does not consult it: buffered records are
// retried on every upload tick whatever their attempt count, and none is
// dropped.
const DefaultMaxUploadAttempts = 5

// DataPlatform handles the streaming of step and efficiency-estimate
// records to Supabase. Put new records onto the appropriate channels; they
// will be buffered on disk before being uploaded.
type DataPlatform struct {
	StepRecords              chan telemetry.StepRecord
	EfficiencyEstimateRecords chan telemetry.EfficiencyEstimateRecord

	latestSteps       []telemetry.StepRecord
	latestEstimates   []telemetry.EfficiencyEstimateRecord
	maxUploadAttempts int

	repository *repository.Repository
	supaClient *supabase.Client
	logger     *slog.Logger
}

// New creates a DataPlatform backed by a local sqlite buffer file and a
// Supabase upload target.
func New(supabaseURL, supabaseAnonKey, supabaseUserKey, schema, bufferRepositoryFilename string) (*DataPlatform, error) {
	supaClient, err := supabase.New(supabaseURL, supabaseAnonKey, supabaseUserKey, schema)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	repo, err := repository.New(bufferRepositoryFilename)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	return &DataPlatform{
		StepRecords:               make(chan telemetry.StepRecord, 128),
		EfficiencyEstimateRecords: make(chan telemetry.EfficiencyEstimateRecord, 8),
		maxUploadAttempts:         DefaultMaxUploadAttempts,
		repository:                repo,
		supaClient:                supaClient,
		logger:                    slog.Default(),
	}, nil
}

// Run loops forever draining the record channels and uploading on a ticker.
func (d *DataPlatform) Run(ctx context.Context, uploadInterval time.Duration) {
	uploadTicker := time.NewTicker(uploadInterval)
	defer uploadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case rec := <-d.StepRecords:
			d.latestSteps = append(d.latestSteps, rec)

		case rec := <-d.EfficiencyEstimateRecords:
			d.latestEstimates = append(d.latestEstimates, rec)

		case <-uploadTicker.C:
			attemptOld := true

			nFreshSteps, err := d.processFreshSteps()
			if err != nil {
				d.logger.Error("failed to process fresh step records", "error", err)
				attemptOld = false
			}
			nFreshEstimates, err := d.processFreshEstimates()
			if err != nil {
				d.logger.Error("failed to process fresh efficiency estimate records", "error", err)
				attemptOld = false
			}

			var nOldSteps, nOldEstimates int
			if attemptOld {
				nOldSteps, err = d.processOldSteps()
				if err != nil {
					d.logger.Error("failed to process old step records", "error", err)
				}
				nOldEstimates, err = d.processOldEstimates()
				if err != nil {
					d.logger.Error("failed to process old efficiency estimate records", "error", err)
				}
			}

			d.logger.Info("finished upload routine",
				"steps_fresh", nFreshSteps, "estimates_fresh", nFreshEstimates,
				"steps_old", nOldSteps, "estimates_old", nOldEstimates)
		}
	}
}

func (d *DataPlatform) processFreshSteps() (int, error) {
	records := d.latestSteps
	d.latestSteps = nil
	if err := d.processFreshRecords(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (d *DataPlatform) processFreshEstimates() (int, error) {
	records := d.latestEstimates
	d.latestEstimates = nil
	if err := d.processFreshRecords(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (d *DataPlatform) processOldSteps() (int, error) {
	stored, err := d.repository.GetStepRecords(50)
	if err != nil {
		return 0, fmt.Errorf("retrieve step records: %w", err)
	}
	return d.processOldRecords(stored)
}

func (d *DataPlatform) processOldEstimates() (int, error) {
	stored, err := d.repository.GetEfficiencyEstimateRecords(10)
	if err != nil {
		return 0, fmt.Errorf("retrieve efficiency estimate records: %w", err)
	}
	return d.processOldRecords(stored)
}

// processFreshRecords attempts to upload newly-arrived records, buffering
// them to the repository on failure so they are retried as "old" records.
func (d *DataPlatform) processFreshRecords(records interface{}) error {
	if reflect.ValueOf(records).Len() == 0 {
		return nil
	}

	uploadErr := d.supaClient.UploadReadings(records)
	if uploadErr != nil {
		storeErr := d.repository.StoreRecords(records)
		if storeErr != nil {
			return fmt.Errorf("upload failed (%w) and store for later upload failed: %w", uploadErr, storeErr)
		}
		return fmt.Errorf("upload failed: %w", uploadErr)
	}
	return nil
}

// processOldRecords attempts to re-upload previously buffered records. On
// success they are deleted from the repository; on failure their upload
// attempt count is incremented.
func (d *DataPlatform) processOldRecords(storedRecords interface{}) (int, error) {
	n := reflect.ValueOf(storedRecords).Len()
	if n < 1 {
		return 0, nil
	}

	originalRecords := d.repository.ConvertStoredToRecords(storedRecords)

	uploadErr := d.supaClient.UploadReadings(originalRecords)
	if uploadErr != nil {
		if errInc := d.repository.IncrementUploadAttemptCount(storedRecords); errInc != nil {
			return 0, fmt.Errorf("upload failed (%w) and increment attempt count failed: %w", uploadErr, errInc)
		}
		return 0, fmt.Errorf("upload failed: %w", uploadErr)
	}

	if deleteErr := d.repository.DeleteRecords(storedRecords); deleteErr != nil {
		return 0, fmt.Errorf("delete uploaded records: %w", deleteErr)
	}
	return n, nil
}
