// Package service implements the datastore operations: publishing work
// files as immutable versions, querying the index, retention sweeps and
// orphan reconciliation.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/imap-mag/magvault/pkg/cache"
	"github.com/imap-mag/magvault/pkg/configs"
	ctxPkg "github.com/imap-mag/magvault/pkg/context"
	"github.com/imap-mag/magvault/pkg/internal/model"
	"github.com/imap-mag/magvault/pkg/internal/repository"
	datastorec "github.com/imap-mag/magvault/pkg/internal/storage/datastore"
	mqc "github.com/imap-mag/magvault/pkg/internal/storage/mq"
	nlog "github.com/imap-mag/magvault/pkg/log"
	"github.com/imap-mag/magvault/pkg/queue"
)

var (
	// ErrChecksumMismatch means the staged content does not hash to the
	// checksum the producer claimed.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrStoreWrite means the datastore filesystem write failed. Nothing
	// became visible at the canonical path.
	ErrStoreWrite = errors.New("store write failed")
	// ErrIndexDrift means the index and the store disagree. The reconciler
	// picks these up; they are never repaired inline.
	ErrIndexDrift = errors.New("index drift detected")
	// ErrArchiveDisabled means a retention task wants archive mode but no
	// archive mirror is configured.
	ErrArchiveDisabled = errors.New("archive mirror not configured")
)

// RecordService publishes, queries and retires file versions.
type RecordService struct {
	db     *gorm.DB
	repo   *repository.Files
	store  *datastorec.Client
	mq     *mqc.Client
	cache  *cache.Cache
	events configs.EventsConfig
}

// NewRecordService builds a RecordService from the storage manager carried
// in the context.
func NewRecordService(c context.Context) *RecordService {
	gdb := ctxPkg.GetDBClient(c).GetDB()

	s := &RecordService{
		db:     gdb,
		repo:   repository.NewFiles(gdb),
		store:  ctxPkg.GetStoreClient(c),
		mq:     ctxPkg.GetMQClient(c),
		events: configs.GetConfig().Events,
	}

	if kvClient := ctxPkg.GetKVClient(c); kvClient != nil {
		s.cache = cache.NewCache(kvClient)
	}

	return s
}

// recordRef converts an index row into its event shape.
func recordRef(f *model.File) queue.RecordRef {
	return queue.RecordRef{
		Mission:    f.Mission,
		Instrument: f.Instrument,
		Level:      f.Level,
		Descriptor: f.Descriptor,
		Date:       f.Date.Format("2006-01-02"),
		Version:    f.Version,
		Path:       f.Path,
		Checksum:   f.Checksum,
		Size:       f.Size,
	}
}

// latestCacheKey is the kv key caching the latest active version of a family.
func latestCacheKey(fam repository.Family) string {
	return fmt.Sprintf("latest:%s:%s:%s:%s:%s",
		fam.Mission, fam.Instrument, fam.Level, fam.Descriptor,
		fam.Date.Format("20060102"))
}

// invalidateLatest drops the cached latest entry after any write.
func (s *RecordService) invalidateLatest(ctx context.Context, fam repository.Family) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, latestCacheKey(fam)); err != nil {
		logger(ctx).Warn().Err(err).Msg("latest cache invalidation failed")
	}
}

// publishEvent sends one event, best effort. Event loss never fails the
// operation that produced it.
func (s *RecordService) publishEvent(ctx context.Context, publish func() error, topic string) {
	if s.mq == nil || !s.events.Enabled {
		return
	}

	if err := publish(); err != nil {
		logger(ctx).Warn().Err(err).Str("topic", topic).Msg("event publish failed")
	}
}

// logger returns the service logger, annotated with trace ids when a span
// is recording.
func logger(ctx context.Context) *zerolog.Logger {
	l := ctxPkg.WithTraceContext(ctx, *nlog.Logger())
	return &l
}
