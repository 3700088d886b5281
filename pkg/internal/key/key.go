// Package key defines the logical key that identifies a science product
// family and the deterministic mapping from keys to datastore paths.
package key

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidKey reports a logical key that fails validation.
var ErrInvalidKey = errors.New("invalid logical key")

// tokenPattern matches the characters allowed in every key part. Underscores
// are excluded because the flat file name uses them as separators.
var tokenPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// LogicalKey identifies a family of file versions. All versions of the same
// key differ only in their version number.
type LogicalKey struct {
	Mission    string    `json:"mission"`
	Instrument string    `json:"instrument"`
	Level      string    `json:"level"`
	Descriptor string    `json:"descriptor"`
	Date       time.Time `json:"date"`
	// Mode is an optional acquisition mode; when set it is folded into the
	// descriptor part of names and paths.
	Mode string `json:"mode,omitempty"`
	// Extension is the file extension without the leading dot.
	Extension string `json:"extension"`
}

// Validate checks every part of the key. The date must be non zero and the
// string parts must be lowercase alphanumeric tokens.
func (k LogicalKey) Validate() error {
	parts := map[string]string{
		"mission":    k.Mission,
		"instrument": k.Instrument,
		"level":      k.Level,
		"descriptor": k.Descriptor,
	}
	for name, v := range parts {
		if v == "" {
			return fmt.Errorf("%w: empty %s", ErrInvalidKey, name)
		}

		if !tokenPattern.MatchString(v) {
			return fmt.Errorf("%w: %s %q must be lowercase alphanumeric with hyphens", ErrInvalidKey, name, v)
		}
	}

	if k.Mode != "" && !tokenPattern.MatchString(k.Mode) {
		return fmt.Errorf("%w: mode %q must be lowercase alphanumeric with hyphens", ErrInvalidKey, k.Mode)
	}

	if k.Date.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidKey)
	}

	if k.Extension == "" || strings.HasPrefix(k.Extension, ".") {
		return fmt.Errorf("%w: extension %q must be non empty without a leading dot", ErrInvalidKey, k.Extension)
	}

	return nil
}

// DescriptorPart folds the optional mode into the descriptor. This is the
// form stored in the index and used in file names.
func (k LogicalKey) DescriptorPart() string {
	if k.Mode != "" {
		return k.Descriptor + "-" + k.Mode
	}

	return k.Descriptor
}

// Folder returns the datastore folder for this key, {level}/{yyyy}/{mm}/{dd},
// using forward slashes.
func (k LogicalKey) Folder() string {
	return path.Join(
		k.Level,
		fmt.Sprintf("%04d", k.Date.Year()),
		fmt.Sprintf("%02d", k.Date.Month()),
		fmt.Sprintf("%02d", k.Date.Day()),
	)
}

// FileName returns the flat file name for a concrete version:
// {mission}_{instrument}_{level}_{descriptor}_{yyyymmdd}_v{version:03d}.{ext}.
// Versions above 999 widen the field instead of truncating.
func (k LogicalKey) FileName(version int) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s_v%03d.%s",
		k.Mission, k.Instrument, k.Level, k.DescriptorPart(),
		k.Date.Format("20060102"), version, k.Extension,
	)
}

// Path returns the canonical datastore relative path for a version.
func (k LogicalKey) Path(version int) string {
	return path.Join(k.Folder(), k.FileName(version))
}

// FamilyPrefix returns the path prefix shared by every version of this key,
// the canonical path minus the version and extension suffix.
func (k LogicalKey) FamilyPrefix() string {
	return path.Join(k.Folder(), fmt.Sprintf("%s_%s_%s_%s_%s_v",
		k.Mission, k.Instrument, k.Level, k.DescriptorPart(),
		k.Date.Format("20060102"),
	))
}

// String renders the key for logs: mission/instrument/level/descriptor/date.
func (k LogicalKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		k.Mission, k.Instrument, k.Level, k.DescriptorPart(), k.Date.Format("2006-01-02"))
}

// fileNamePattern matches canonical flat file names produced by FileName.
var fileNamePattern = regexp.MustCompile(
	`^([a-z0-9-]+)_([a-z0-9-]+)_([a-z0-9-]+)_([a-z0-9-]+)_(\d{8})_v(\d{3,})\.([A-Za-z0-9.]+)$`)

// ParsePath parses a canonical datastore relative path back into a key and
// version. It is the inverse of Path for valid keys.
func ParsePath(p string) (LogicalKey, int, error) {
	var k LogicalKey

	base := path.Base(p)

	m := fileNamePattern.FindStringSubmatch(base)
	if m == nil {
		return k, 0, fmt.Errorf("%w: file name %q does not match the naming scheme", ErrInvalidKey, base)
	}

	date, err := time.Parse("20060102", m[5])
	if err != nil {
		return k, 0, fmt.Errorf("%w: bad date in %q: %v", ErrInvalidKey, base, err)
	}

	version, err := strconv.Atoi(m[6])
	if err != nil {
		return k, 0, fmt.Errorf("%w: bad version in %q: %v", ErrInvalidKey, base, err)
	}

	k = LogicalKey{
		Mission:    m[1],
		Instrument: m[2],
		Level:      m[3],
		Descriptor: m[4],
		Date:       date,
		Extension:  m[7],
	}

	return k, version, nil
}
