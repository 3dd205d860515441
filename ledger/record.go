// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key scheme of the backing store. Fixed for wire compatibility: the index
// lives under one well-known key, each record under the prefix plus its id.
const (
	IndexKey        = "campaign_keys"
	RecordKeyPrefix = "campaign_"
)

// Status is the lifecycle state of a campaign record. Transitions are
// forward-only: processing -> completed, or processing -> error. Nothing
// leaves completed or error.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Metrics are the user-supplied campaign inputs, immutable once set.
type Metrics struct {
	Servers      int     `json:"servers"`
	BandwidthGB  float64 `json:"bandwidthGB"`
	Impressions  int     `json:"impressions"`
	DurationDays int     `json:"durationDays"`
}

// CampaignRecord is the unit of persistence and the domain entity. The JSON
// field names are the store's wire format and must not change.
type CampaignRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	EncryptedPayload string   `json:"encryptedPayload"`
	CreatedAt        int64    `json:"createdAt"`
	Owner            string   `json:"owner"`
	CarbonFootprint  float64  `json:"carbonFootprint"`
	Status           Status   `json:"status"`
	Metrics          *Metrics `json:"metrics,omitempty"`
}

// OwnedBy reports whether principal is the record's owner. Principals are
// wallet addresses and compare case-insensitively.
func (r *CampaignRecord) OwnedBy(principal string) bool {
	return strings.EqualFold(r.Owner, principal)
}

// RecordKey derives the store key for a record id.
func RecordKey(id string) string {
	return RecordKeyPrefix + id
}

var errEmptyID = errors.New("record has empty id")

// NewID generates a campaign id: unix-seconds timestamp plus a random suffix.
// Uniqueness rests on the timestamp+random composition; collisions are
// accepted as negligible.
func NewID(now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%d-%s", now.Unix(), suffix)
}

// decodeRecord parses a record blob. Records written by older clients may
// omit status and carbonFootprint; those default to processing and 0.
func decodeRecord(blob []byte) (*CampaignRecord, error) {
	var rec CampaignRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		return nil, errEmptyID
	}
	if rec.Status == "" {
		rec.Status = StatusProcessing
	}
	return &rec, nil
}

func encodeRecord(rec *CampaignRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// decodeIndex parses the key index blob, a JSON array of id strings. A nil
// or malformed blob yields an empty index rather than an error: the caller
// treats that as "no campaigns yet".
func decodeIndex(blob []byte) []string {
	if len(blob) == 0 {
		return nil
	}
	var idx []string
	if err := json.Unmarshal(blob, &idx); err != nil {
		return nil
	}
	return idx
}

func encodeIndex(ids []string) ([]byte, error) {
	return json.Marshal(ids)
}
