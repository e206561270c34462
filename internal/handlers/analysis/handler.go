// Package analysis serves Gemini-backed questions and summaries over transcripts.
package analysis

import (
	"net/http"
	"strings"

	"ytcollector-go/internal/analysis"
	apierrors "ytcollector-go/internal/errors"
	"ytcollector-go/internal/transcript"
	"ytcollector-go/internal/youtube"

	"github.com/gin-gonic/gin"
)

// Handler exposes the analyzer. A nil analyzer answers 503 analysis_disabled.
type Handler struct {
	analyzer *analysis.Analyzer
}

// New builds a Handler around analyzer.
func New(analyzer *analysis.Analyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

// RegisterRoutes mounts the analysis routes on rg.
func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/transcripts/:id/ask", h.Ask)
	rg.POST("/transcripts/:id/topic", h.Topic)
	rg.POST("/transcripts/:id/analyze", h.Analyze)
	rg.POST("/transcripts/:id/summary", h.Summary)
}

// TranscriptSelection picks the caption track analyzed.
type TranscriptSelection struct {
	Title     string   `json:"title"`
	Languages []string `json:"languages"`
	Strict    bool     `json:"strict"`
}

func (s TranscriptSelection) options() transcript.Options {
	return transcript.Options{Languages: s.Languages, Strict: s.Strict}
}

// AskRequest is the body of POST /transcripts/:id/ask.
type AskRequest struct {
	TranscriptSelection
	Question string          `json:"question"`
	History  []analysis.Turn `json:"history"`
}

// TopicRequest is the body of POST /transcripts/:id/topic.
type TopicRequest struct {
	TranscriptSelection
	Topic   string          `json:"topic"`
	History []analysis.Turn `json:"history"`
}

// AnalyzeRequest is the body of POST /transcripts/:id/analyze and /summary.
type AnalyzeRequest struct {
	TranscriptSelection
	Type string `json:"type"`
}

// Ask answers a free-form question; history carries the prior turns.
func (h *Handler) Ask(c *gin.Context) {
	videoID, ok := h.prepare(c)
	if !ok {
		return
	}
	var req AskRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		apierrors.New(http.StatusBadRequest, "missing_question", apierrors.TypeInvalidRequest, "question is required").Write(c)
		return
	}
	reply, err := h.analyzer.Ask(c.Request.Context(), videoID, analysis.Question{
		Text:       req.Question,
		History:    req.History,
		Title:      req.Title,
		Transcript: req.options(),
	})
	respond(c, reply, err)
}

// Topic asks what the video says about one topic.
func (h *Handler) Topic(c *gin.Context) {
	videoID, ok := h.prepare(c)
	if !ok {
		return
	}
	var req TopicRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		apierrors.New(http.StatusBadRequest, "missing_topic", apierrors.TypeInvalidRequest, "topic is required").Write(c)
		return
	}
	reply, err := h.analyzer.FindTopic(c.Request.Context(), videoID, req.Topic, analysis.Question{
		History:    req.History,
		Title:      req.Title,
		Transcript: req.options(),
	})
	respond(c, reply, err)
}

// Analyze runs a one-shot analysis; type is summary, key_points, topics or
// sentiment and may also be given as ?type=.
func (h *Handler) Analyze(c *gin.Context) {
	h.analyze(c, "")
}

// Summary is Analyze with the type fixed to summary.
func (h *Handler) Summary(c *gin.Context) {
	h.analyze(c, analysis.KindSummary)
}

func (h *Handler) analyze(c *gin.Context, fixed analysis.Kind) {
	videoID, ok := h.prepare(c)
	if !ok {
		return
	}
	var req AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	kind := fixed
	if kind == "" {
		raw := req.Type
		if raw == "" {
			raw = c.Query("type")
		}
		k, err := analysis.ParseKind(raw)
		if err != nil {
			apierrors.New(http.StatusBadRequest, "invalid_type", apierrors.TypeInvalidRequest, err.Error()).Write(c)
			return
		}
		kind = k
	}
	reply, err := h.analyzer.Analyze(c.Request.Context(), videoID, kind, req.Title, req.options())
	respond(c, reply, err)
}

func (h *Handler) prepare(c *gin.Context) (string, bool) {
	if h.analyzer == nil {
		apierrors.Abort(c, analysis.ErrDisabled)
		return "", false
	}
	videoID, ok := youtube.ExtractVideoID(c.Param("id"))
	if !ok {
		videoID = c.Param("id")
	}
	c.Set("video_id", videoID)
	return videoID, true
}

// bindJSON accepts an empty body as the zero request.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		apierrors.New(http.StatusBadRequest, "invalid_json", apierrors.TypeInvalidRequest, err.Error()).Write(c)
		return false
	}
	return true
}

func respond(c *gin.Context, reply *analysis.Reply, err error) {
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.Set("cached", reply.Cached)
	c.JSON(http.StatusOK, reply)
}
