// Package queue is the durable work queue behind asynchronous discrete-data
// processing. Documents whose content has a registered discrete handler are
// queued at submission time and drained by a pool of pollers.
package queue

import "time"

// Status is the lifecycle state of a queue item.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusSuccessful Status = "SUCCESSFUL"
	StatusFailed     Status = "FAILED"
)

// Item is one queued discrete-processing job. RoleProviderMap is the encoded
// provider-by-role assignment captured at submission time, since provider
// resolution must not be repeated when the item is processed later.
type Item struct {
	ID              int64     `db:"id" json:"id"`
	PatientID       int64     `db:"patient_id" json:"patient_id"`
	EncounterTypeID int64     `db:"encounter_type_id" json:"encounter_type_id"`
	DocUniqueID     string    `db:"doc_unique_id" json:"doc_unique_id"`
	RoleProviderMap string    `db:"role_provider_map" json:"role_provider_map"`
	Status          Status    `db:"status" json:"status"`
	DateAdded       time.Time `db:"date_added" json:"date_added"`
	DateUpdated     time.Time `db:"date_updated" json:"date_updated"`
}
