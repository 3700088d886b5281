package key_test

import (
	"errors"
	"testing"
	"time"

	"github.com/imap-mag/magvault/pkg/internal/key"
)

func validKey() key.LogicalKey {
	return key.LogicalKey{
		Mission:    "imap",
		Instrument: "mag",
		Level:      "l2",
		Descriptor: "norm",
		Date:       time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		Mode:       "mago",
		Extension:  "cdf",
	}
}

func TestValidate(t *testing.T) {
	if err := validKey().Validate(); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*key.LogicalKey)
	}{
		{"empty mission", func(k *key.LogicalKey) { k.Mission = "" }},
		{"uppercase instrument", func(k *key.LogicalKey) { k.Instrument = "MAG" }},
		{"underscore descriptor", func(k *key.LogicalKey) { k.Descriptor = "norm_mago" }},
		{"zero date", func(k *key.LogicalKey) { k.Date = time.Time{} }},
		{"empty extension", func(k *key.LogicalKey) { k.Extension = "" }},
		{"dotted extension", func(k *key.LogicalKey) { k.Extension = ".cdf" }},
		{"bad mode", func(k *key.LogicalKey) { k.Mode = "Burst!" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := validKey()
			tc.mutate(&k)

			err := k.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			if !errors.Is(err, key.ErrInvalidKey) {
				t.Fatalf("expected ErrInvalidKey, got %v", err)
			}
		})
	}
}

func TestFolder(t *testing.T) {
	got := validKey().Folder()
	want := "l2/2025/05/02"

	if got != want {
		t.Errorf("Folder() = %q, want %q", got, want)
	}
}

func TestFileName(t *testing.T) {
	k := validKey()

	got := k.FileName(3)
	want := "imap_mag_l2_norm-mago_20250502_v003.cdf"

	if got != want {
		t.Errorf("FileName(3) = %q, want %q", got, want)
	}

	// versions above 999 widen the field
	got = k.FileName(1234)
	want = "imap_mag_l2_norm-mago_20250502_v1234.cdf"

	if got != want {
		t.Errorf("FileName(1234) = %q, want %q", got, want)
	}
}

func TestFileNameWithoutMode(t *testing.T) {
	k := validKey()
	k.Mode = ""

	got := k.FileName(1)
	want := "imap_mag_l2_norm_20250502_v001.cdf"

	if got != want {
		t.Errorf("FileName(1) = %q, want %q", got, want)
	}
}

func TestPath(t *testing.T) {
	got := validKey().Path(12)
	want := "l2/2025/05/02/imap_mag_l2_norm-mago_20250502_v012.cdf"

	if got != want {
		t.Errorf("Path(12) = %q, want %q", got, want)
	}
}

func TestFamilyPrefix(t *testing.T) {
	k := validKey()
	prefix := k.FamilyPrefix()
	want := "l2/2025/05/02/imap_mag_l2_norm-mago_20250502_v"

	if prefix != want {
		t.Errorf("FamilyPrefix() = %q, want %q", prefix, want)
	}
}

func TestParsePath(t *testing.T) {
	k := validKey()
	p := k.Path(7)

	parsed, version, err := key.ParsePath(p)
	if err != nil {
		t.Fatalf("ParsePath(%q) failed: %v", p, err)
	}

	if version != 7 {
		t.Errorf("version = %d, want 7", version)
	}

	if parsed.Mission != "imap" || parsed.Instrument != "mag" || parsed.Level != "l2" {
		t.Errorf("parsed key %+v does not round trip", parsed)
	}

	// mode folds into the descriptor on parse
	if parsed.Descriptor != "norm-mago" {
		t.Errorf("descriptor = %q, want %q", parsed.Descriptor, "norm-mago")
	}

	if !parsed.Date.Equal(k.Date) {
		t.Errorf("date = %v, want %v", parsed.Date, k.Date)
	}

	if parsed.Extension != "cdf" {
		t.Errorf("extension = %q, want cdf", parsed.Extension)
	}
}

func TestParsePathRejectsForeignNames(t *testing.T) {
	bad := []string{
		"l2/2025/05/02/notes.txt",
		"l2/2025/05/02/imap_mag_l2_norm_20250502.cdf",      // no version
		"l2/2025/05/02/imap_mag_l2_norm_20250502_v01.cdf",  // short version field
		"l2/2025/05/02/IMAP_mag_l2_norm_20250502_v001.cdf", // uppercase
	}

	for _, p := range bad {
		if _, _, err := key.ParsePath(p); err == nil {
			t.Errorf("ParsePath(%q) accepted a foreign name", p)
		}
	}
}
