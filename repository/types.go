package repository

import "github.com/cepro/battsched/telemetry"

// StoredStepRecord represents an optimizer step persisted to the SQLite
// database, with a count of upload attempts.
type StoredStepRecord struct {
	telemetry.StepRecord
	UploadAttemptCount uint
}

// StoredEfficiencyEstimateRecord represents an efficiency estimate
// persisted to the SQLite database, with a count of upload attempts.
type StoredEfficiencyEstimateRecord struct {
	telemetry.EfficiencyEstimateRecord
	UploadAttemptCount uint
}

func newStoredStepRecord(rec telemetry.StepRecord) StoredStepRecord {
	return StoredStepRecord{StepRecord: rec, UploadAttemptCount: 0}
}

func newStoredEfficiencyEstimateRecord(rec telemetry.EfficiencyEstimateRecord) StoredEfficiencyEstimateRecord {
	return StoredEfficiencyEstimateRecord{EfficiencyEstimateRecord: rec, UploadAttemptCount: 0}
}
