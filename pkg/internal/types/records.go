package types

import (
	"fmt"
	"time"

	"github.com/imap-mag/magvault/pkg/internal/key"
	"github.com/imap-mag/magvault/pkg/internal/model"
)

// KeyParams carries a logical key across the API and CLI surfaces.
// Date is the nominal science date in yyyymmdd form.
type KeyParams struct {
	Mission    string `form:"mission"    json:"mission"    rule:"required,max=64"`
	Instrument string `form:"instrument" json:"instrument" rule:"required,max=64"`
	Level      string `form:"level"      json:"level"      rule:"required,max=64"`
	Descriptor string `form:"descriptor" json:"descriptor" rule:"required,max=255"`
	Date       string `form:"date"       json:"date"       rule:"required,len=8,numeric"`
	Mode       string `form:"mode"       json:"mode"       rule:"omitempty,max=64"`
	Extension  string `form:"extension"  json:"extension"  rule:"required,max=16"`
}

// Key parses the parameters into a logical key.
func (p KeyParams) Key() (key.LogicalKey, error) {
	date, err := time.ParseInLocation("20060102", p.Date, time.UTC)
	if err != nil {
		return key.LogicalKey{}, fmt.Errorf("parse date %q: %w", p.Date, err)
	}

	k := key.LogicalKey{
		Mission:    p.Mission,
		Instrument: p.Instrument,
		Level:      p.Level,
		Descriptor: p.Descriptor,
		Date:       date,
		Mode:       p.Mode,
		Extension:  p.Extension,
	}

	return k, k.Validate()
}

// RecordInfo is one indexed version as presented by the API.
type RecordInfo struct {
	Mission    string `json:"mission"`
	Instrument string `json:"instrument"`
	Level      string `json:"level"`
	Descriptor string `json:"descriptor"`
	Date       string `json:"date"` // yyyymmdd
	Version    int    `json:"version"`

	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
	Status   string `json:"status"`

	SoftwareVersion string     `json:"software_version,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletionDate    *time.Time `json:"deletion_date,omitempty"`
}

// NewRecordInfo converts an index row to its API shape.
func NewRecordInfo(f *model.File) RecordInfo {
	return RecordInfo{
		Mission:         f.Mission,
		Instrument:      f.Instrument,
		Level:           f.Level,
		Descriptor:      f.Descriptor,
		Date:            f.Date.Format("20060102"),
		Version:         f.Version,
		Path:            f.Path,
		Checksum:        f.Checksum,
		Size:            f.Size,
		Status:          string(f.Status),
		SoftwareVersion: f.SoftwareVersion,
		CreatedAt:       f.CreatedAt,
		DeletionDate:    f.DeletionDate,
	}
}

// FamilyFilterParams narrows a family listing. Values are matched with SQL
// LIKE when they contain a % wildcard, exactly otherwise.
type FamilyFilterParams struct {
	Instrument string `form:"instrument" json:"instrument,omitempty"`
	Level      string `form:"level"      json:"level,omitempty"`
	Descriptor string `form:"descriptor" json:"descriptor,omitempty"`
}

// FamilyInfo is one distinct logical key as presented by the API.
type FamilyInfo struct {
	Mission    string `json:"mission"`
	Instrument string `json:"instrument"`
	Level      string `json:"level"`
	Descriptor string `json:"descriptor"`
	Date       string `json:"date"` // yyyymmdd
}

// FamiliesResponse lists the distinct logical keys known to the index.
type FamiliesResponse struct {
	Families []FamilyInfo `json:"families"`
	Total    int          `json:"total"`
}

// PublishRequest publishes one work area file into the datastore.
type PublishRequest struct {
	Key KeyParams `json:"key"`
	// WorkFile is the absolute path of the staged product in the work area.
	WorkFile string `json:"work_file" rule:"required"`
	// Checksum is the producer-computed SHA-256 of the work file, hex
	// encoded. The service re-hashes and rejects mismatches.
	Checksum        string `json:"checksum"                   rule:"required,len=64,hexadecimal"`
	SoftwareVersion string `json:"software_version,omitempty" rule:"omitempty,max=64"`
	Metadata        string `json:"metadata,omitempty"`
	// Quarantine publishes the version with quarantined status.
	Quarantine bool `json:"quarantine,omitempty"`
}

// PublishResponse reports the stored version. Republished is true when an
// identical active version already existed and no new version was created.
type PublishResponse struct {
	Record      RecordInfo `json:"record"`
	Republished bool       `json:"republished"`
}

// HistoryResponse lists every version of one family, ascending.
type HistoryResponse struct {
	Key      KeyParams    `json:"key"`
	Versions []RecordInfo `json:"versions"`
	Total    int          `json:"total"`
	Active   int          `json:"active"`
}

// DeleteRequest soft deletes one version.
type DeleteRequest struct {
	Key     KeyParams `json:"key"`
	Version int       `json:"version"          rule:"min=0"`
	Reason  string    `json:"reason,omitempty" rule:"omitempty,max=255"`
}

// UndeleteRequest restores a soft deleted version.
type UndeleteRequest struct {
	Key     KeyParams `json:"key"`
	Version int       `json:"version" rule:"min=0"`
}
