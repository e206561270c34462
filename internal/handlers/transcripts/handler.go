// Package transcripts serves caption downloads over HTTP.
package transcripts

import (
	"net/http"
	"strconv"
	"strings"

	"ytcollector-go/internal/constants"
	apierrors "ytcollector-go/internal/errors"
	"ytcollector-go/internal/logging"
	"ytcollector-go/internal/transcript"
	"ytcollector-go/internal/youtube"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler exposes the transcript service.
type Handler struct {
	svc      *transcript.Service
	maxBatch int
}

// New builds a Handler around svc.
func New(svc *transcript.Service) *Handler {
	return &Handler{svc: svc, maxBatch: constants.MaxBatchSize}
}

// RegisterRoutes mounts the transcript routes on rg.
func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/transcripts/:id", h.Get)
	rg.POST("/transcripts/batch", h.Batch)
}

// Get returns one transcript. Query parameters:
//   - lang: comma separated preference list, overrides the server default
//   - strict: only the listed languages are acceptable
//   - format: timestamped (default), plain or json
//   - title: title recorded in the export document
//   - refresh: bypass the cache lookup
//   - raw: respond with the rendered text as text/plain
func (h *Handler) Get(c *gin.Context) {
	videoID, ok := youtube.ExtractVideoID(c.Param("id"))
	if !ok {
		videoID = c.Param("id")
	}
	c.Set("video_id", videoID)

	format, err := transcript.ParseFormat(c.Query("format"))
	if err != nil {
		apierrors.New(http.StatusBadRequest, "invalid_format", apierrors.TypeInvalidRequest, err.Error()).Write(c)
		return
	}
	opts := transcript.Options{
		Languages: splitLanguages(c.Query("lang")),
		Strict:    queryBool(c, "strict"),
		SkipCache: queryBool(c, "refresh"),
	}

	out, err := h.svc.GetAndFormat(c.Request.Context(), videoID, c.Query("title"), opts, format)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.Set("cached", out.Result.Cached)
	c.Header("X-Transcript-Cached", strconv.FormatBool(out.Result.Cached))
	c.Header("X-Transcript-Attempts", strconv.Itoa(out.Result.Attempts))

	if queryBool(c, "raw") {
		contentType := "text/plain; charset=utf-8"
		if format == transcript.FormatJSON {
			contentType = "application/json; charset=utf-8"
		}
		c.Data(http.StatusOK, contentType, []byte(out.Text))
		return
	}
	c.JSON(http.StatusOK, out)
}

// BatchRequest is the body of POST /transcripts/batch. Entries may be video
// ids or watch URLs.
type BatchRequest struct {
	VideoIDs  []string `json:"video_ids" binding:"required"`
	Languages []string `json:"languages"`
	Strict    bool     `json:"strict"`
	Refresh   bool     `json:"refresh"`
}

// BatchItem is one entry of the batch response.
type BatchItem struct {
	VideoID    string                 `json:"video_id"`
	OK         bool                   `json:"ok"`
	Transcript *transcript.Transcript `json:"transcript,omitempty"`
	Meta       *transcript.Result     `json:"meta,omitempty"`
	Error      *apierrors.Envelope    `json:"error,omitempty"`
}

// Batch fetches several transcripts concurrently. Per-video failures are
// reported inline and never fail the whole request.
func (h *Handler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.New(http.StatusBadRequest, "invalid_json", apierrors.TypeInvalidRequest, err.Error()).Write(c)
		return
	}
	if len(req.VideoIDs) == 0 {
		apierrors.New(http.StatusBadRequest, "empty_batch", apierrors.TypeInvalidRequest, "video_ids must not be empty").Write(c)
		return
	}
	if len(req.VideoIDs) > h.maxBatch {
		apierrors.New(http.StatusBadRequest, "batch_too_large", apierrors.TypeInvalidRequest,
			"at most "+strconv.Itoa(h.maxBatch)+" videos per batch").Write(c)
		return
	}

	ids := make([]string, len(req.VideoIDs))
	for i, raw := range req.VideoIDs {
		if id, ok := youtube.ExtractVideoID(raw); ok {
			ids[i] = id
		} else {
			ids[i] = strings.TrimSpace(raw)
		}
	}

	results := h.svc.FetchMany(c.Request.Context(), ids, transcript.Options{
		Languages: req.Languages,
		Strict:    req.Strict,
		SkipCache: req.Refresh,
	})

	items := make([]BatchItem, len(results))
	failed := 0
	for i, r := range results {
		item := BatchItem{VideoID: r.VideoID, OK: r.Err == nil}
		if r.Err != nil {
			failed++
			env := apierrors.FromError(r.Err).Envelope()
			item.Error = &env
		} else {
			item.Transcript = r.Result.Transcript
			item.Meta = r.Result
		}
		items[i] = item
	}
	logging.WithReq(c, log.Fields{"videos": len(ids), "failed": failed}).Info("transcript batch completed")
	c.JSON(http.StatusOK, gin.H{
		"total":     len(items),
		"succeeded": len(items) - failed,
		"failed":    failed,
		"items":     items,
	})
}

func splitLanguages(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
