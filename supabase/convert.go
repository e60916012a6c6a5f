package supabase

import "github.com/cepro/battsched/telemetry"

// convertRecordsForSupabase returns the row payload and target table name
// for a recognised slice of persistable records.
func convertRecordsForSupabase(records interface{}) (interface{}, string) {
	switch records.(type) {
	case []telemetry.StepRecord:
		return records, "steps"
	case []telemetry.EfficiencyEstimateRecord:
		return records, "efficiency_estimates"
	default:
		panic("supabase: unknown record type for upload")
	}
}
