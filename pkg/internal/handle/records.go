package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imap-mag/magvault/pkg/internal/repository"
	"github.com/imap-mag/magvault/pkg/internal/service"
	"github.com/imap-mag/magvault/pkg/internal/types"
	"github.com/imap-mag/magvault/pkg/log"
	"github.com/imap-mag/magvault/pkg/rule"
)

// PublishRecord publishes a work area file as the next version of its key.
func PublishRecord(c *gin.Context) {
	l := log.Logger()

	var req types.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid publish request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	k, err := req.Key.Key()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewRecordService(c.Request.Context())

	f, republished, err := svc.Publish(c.Request.Context(), k, req.WorkFile, req.Checksum,
		service.PublishOptions{
			SoftwareVersion: req.SoftwareVersion,
			Metadata:        req.Metadata,
			Quarantine:      req.Quarantine,
			Source:          "api",
		})
	if err != nil {
		l.Error().Err(err).Str("key", k.String()).Msg("publish failed")
		failWith(c, err)

		return
	}

	status := http.StatusCreated
	if republished {
		status = http.StatusOK
	}

	c.JSON(status, types.PublishResponse{
		Record:      types.NewRecordInfo(f),
		Republished: republished,
	})
}

// LatestRecord returns the active record with the highest version.
func LatestRecord(c *gin.Context) {
	k, ok := bindQueryKey(c)
	if !ok {
		return
	}

	svc := service.NewRecordService(c.Request.Context())

	f, err := svc.Latest(c.Request.Context(), k)
	if err != nil {
		failWith(c, err)

		return
	}

	c.JSON(http.StatusOK, types.NewRecordInfo(f))
}

// HistoryRecords returns every version of a key, ascending, soft deleted
// versions flagged.
func HistoryRecords(c *gin.Context) {
	k, ok := bindQueryKey(c)
	if !ok {
		return
	}

	svc := service.NewRecordService(c.Request.Context())

	files, err := svc.History(c.Request.Context(), k)
	if err != nil {
		failWith(c, err)

		return
	}

	active, err := svc.ActiveCount(c.Request.Context(), k)
	if err != nil {
		failWith(c, err)

		return
	}

	resp := types.HistoryResponse{
		Versions: make([]types.RecordInfo, 0, len(files)),
		Total:    len(files),
		Active:   int(active),
	}
	for i := range files {
		resp.Versions = append(resp.Versions, types.NewRecordInfo(&files[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// ListFamilies lists the distinct logical keys in the index.
func ListFamilies(c *gin.Context) {
	var params types.FamilyFilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter parameters"})

		return
	}

	svc := service.NewRecordService(c.Request.Context())

	families, err := svc.Families(c.Request.Context(), repository.FamilyFilter{
		Instrument: params.Instrument,
		Level:      params.Level,
		Descriptor: params.Descriptor,
	})
	if err != nil {
		failWith(c, err)

		return
	}

	resp := types.FamiliesResponse{
		Families: make([]types.FamilyInfo, 0, len(families)),
		Total:    len(families),
	}
	for _, fam := range families {
		resp.Families = append(resp.Families, types.FamilyInfo{
			Mission:    fam.Mission,
			Instrument: fam.Instrument,
			Level:      fam.Level,
			Descriptor: fam.Descriptor,
			Date:       fam.Date.Format("20060102"),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// ResolveRecord maps a canonical datastore path back to its index row.
func ResolveRecord(c *gin.Context) {
	rel := c.Query("path")
	if rel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})

		return
	}

	svc := service.NewRecordService(c.Request.Context())

	f, err := svc.Resolve(c.Request.Context(), rel)
	if err != nil {
		failWith(c, err)

		return
	}

	c.JSON(http.StatusOK, types.NewRecordInfo(f))
}

// GetRecord returns one specific version.
func GetRecord(c *gin.Context) {
	k, ok := bindQueryKey(c)
	if !ok {
		return
	}

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version"})

		return
	}

	svc := service.NewRecordService(c.Request.Context())

	f, err := svc.Get(c.Request.Context(), k, version)
	if err != nil {
		failWith(c, err)

		return
	}

	c.JSON(http.StatusOK, types.NewRecordInfo(f))
}

// DownloadRecord streams the canonical file of one version.
func DownloadRecord(c *gin.Context) {
	k, ok := bindQueryKey(c)
	if !ok {
		return
	}

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version"})

		return
	}

	svc := service.NewRecordService(c.Request.Context())

	f, r, err := svc.OpenVersion(c.Request.Context(), k, version)
	if err != nil {
		failWith(c, err)

		return
	}
	defer r.Close()

	c.Header("X-Checksum-Sha256", f.Checksum)
	c.DataFromReader(http.StatusOK, f.Size, "application/octet-stream", r, map[string]string{
		"Content-Disposition": `attachment; filename="` + k.FileName(version) + `"`,
	})
}

// DeleteRecord soft deletes one version.
func DeleteRecord(c *gin.Context) {
	var req types.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	k, err := req.Key.Key()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewRecordService(c.Request.Context())

	f, err := svc.SoftDelete(c.Request.Context(), k, req.Version, req.Reason)
	if err != nil {
		failWith(c, err)

		return
	}

	c.JSON(http.StatusOK, types.NewRecordInfo(f))
}

// UndeleteRecord restores a soft deleted version.
func UndeleteRecord(c *gin.Context) {
	var req types.UndeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	k, err := req.Key.Key()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	svc := service.NewRecordService(c.Request.Context())

	f, err := svc.Undelete(c.Request.Context(), k, req.Version)
	if err != nil {
		failWith(c, err)

		return
	}

	c.JSON(http.StatusOK, types.NewRecordInfo(f))
}
