// Package model holds the gorm models backing the file index.
package model

import (
	"time"

	"github.com/imap-mag/magvault/pkg/internal/key"
)

// FileStatus marks the validation state of an indexed version.
type FileStatus string

const (
	StatusValidated   FileStatus = "validated"
	StatusQuarantined FileStatus = "quarantined"
)

// File is one immutable version of a science product in the datastore index.
//
// DeletionDate is a plain nullable timestamp rather than gorm soft delete on
// purpose: soft deleted rows must stay visible to version assignment and
// history queries so version numbers are never reused.
type File struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Logical key parts. Together with Version they are unique; the
	// composite index backs gapless version assignment under concurrency.
	Mission    string    `gorm:"size:64;index:idx_files_key_version,unique"  json:"mission"`
	Instrument string    `gorm:"size:64;index:idx_files_key_version,unique"  json:"instrument"`
	Level      string    `gorm:"size:64;index:idx_files_key_version,unique"  json:"level"`
	Descriptor string    `gorm:"size:255;index:idx_files_key_version,unique" json:"descriptor"`
	Date       time.Time `gorm:"index:idx_files_key_version,unique;index"    json:"date"`
	Version    int       `gorm:"index:idx_files_key_version,unique"          json:"version"`

	// Path is the canonical datastore relative path, unique on its own.
	Path string `gorm:"size:1024;uniqueIndex" json:"path"`

	Checksum string `gorm:"size:64;index" json:"checksum"` // SHA-256, hex
	Size     int64  `json:"size"`

	Status          FileStatus `gorm:"size:16;default:validated" json:"status"`
	SoftwareVersion string     `gorm:"size:64"                   json:"software_version,omitempty"`
	// MetadataJSON stores free-form producer metadata as a JSON string.
	MetadataJSON string `gorm:"type:text" json:"metadata_json,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// DeletionDate set means the version is hidden from latest/history
	// queries but still occupies its version number.
	DeletionDate *time.Time `gorm:"index" json:"deletion_date,omitempty"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (File) TableName() string { return "files" }

// Deleted reports whether the version is soft deleted.
func (f *File) Deleted() bool { return f.DeletionDate != nil }

// Key rebuilds the logical key from the row. The mode stays folded into the
// descriptor, matching how paths are generated.
func (f *File) Key() key.LogicalKey {
	ext := ""
	if k, _, err := key.ParsePath(f.Path); err == nil {
		ext = k.Extension
	}

	return key.LogicalKey{
		Mission:    f.Mission,
		Instrument: f.Instrument,
		Level:      f.Level,
		Descriptor: f.Descriptor,
		Date:       f.Date,
		Extension:  ext,
	}
}
