// Package channels serves channel lookups backed by the YouTube Data API and
// the bundled channel catalog.
package channels

import (
	"net/http"
	"strconv"
	"strings"

	"ytcollector-go/internal/catalog"
	"ytcollector-go/internal/constants"
	apierrors "ytcollector-go/internal/errors"
	"ytcollector-go/internal/youtube"

	"github.com/gin-gonic/gin"
)

const defaultVideoLimit = 50

// Handler answers channel queries. A nil manager disables the Data API
// routes with 503; the catalog routes keep working.
type Handler struct {
	manager *youtube.ChannelManager
	catalog *catalog.Catalog
}

// New builds a Handler. Either argument may be nil.
func New(manager *youtube.ChannelManager, cat *catalog.Catalog) *Handler {
	return &Handler{manager: manager, catalog: cat}
}

// RegisterRoutes mounts channel and catalog routes on rg.
func (h *Handler) RegisterRoutes(rg gin.IRouter) {
	rg.GET("/channels/search", h.Search)
	rg.GET("/channels/resolve", h.Resolve)
	rg.GET("/channels/:id", h.Info)
	rg.GET("/channels/:id/videos", h.Videos)
	rg.GET("/catalog/channels", h.Catalog)
}

func (h *Handler) requireAPI(c *gin.Context) bool {
	if h.manager == nil {
		apierrors.Abort(c, youtube.ErrAPIKeyMissing)
		return false
	}
	return true
}

// Search lists channels matching q. With select=true the best hit is
// expanded into full channel details.
func (h *Handler) Search(c *gin.Context) {
	if !h.requireAPI(c) {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		apierrors.New(http.StatusBadRequest, "missing_query", apierrors.TypeInvalidRequest, "q is required").Write(c)
		return
	}
	if queryBool(c, "select") {
		info, hits, err := h.manager.SearchAndSelect(c.Request.Context(), q, true)
		if err != nil {
			apierrors.Abort(c, err)
			return
		}
		c.Set("channel_id", info.ChannelID)
		c.JSON(http.StatusOK, gin.H{"query": q, "selected": info, "results": hits})
		return
	}
	max := queryInt(c, "max", constants.DefaultSearchLimit)
	hits, err := h.manager.Client().SearchChannels(c.Request.Context(), q, max)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": hits})
}

// Resolve turns a channel URL, @handle or channel id into channel details.
func (h *Handler) Resolve(c *gin.Context) {
	if !h.requireAPI(c) {
		return
	}
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		apierrors.New(http.StatusBadRequest, "missing_url", apierrors.TypeInvalidRequest, "url is required").Write(c)
		return
	}
	info, err := h.manager.GetChannelByURL(c.Request.Context(), raw)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.Set("channel_id", info.ChannelID)
	c.JSON(http.StatusOK, info)
}

// Info returns details for one channel id.
func (h *Handler) Info(c *gin.Context) {
	if !h.requireAPI(c) {
		return
	}
	id := c.Param("id")
	c.Set("channel_id", id)
	info, err := h.manager.Client().GetChannelInfo(c.Request.Context(), id)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Videos lists up to max uploads of a channel, newest first.
func (h *Handler) Videos(c *gin.Context) {
	if !h.requireAPI(c) {
		return
	}
	id := c.Param("id")
	c.Set("channel_id", id)
	max := queryInt(c, "max", defaultVideoLimit)
	videos, err := h.manager.Client().GetChannelVideos(c.Request.Context(), id, max)
	if err != nil {
		apierrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel_id": id, "count": len(videos), "videos": videos})
}

// Catalog queries the bundled channel list: q searches names, rank picks one
// entry, top returns the first n, and no parameters returns everything.
func (h *Handler) Catalog(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusOK, gin.H{"channels": []catalog.Channel{}, "stats": catalog.Stats{}})
		return
	}
	var channels []catalog.Channel
	switch {
	case c.Query("rank") != "":
		rank, err := strconv.Atoi(c.Query("rank"))
		if err != nil {
			apierrors.New(http.StatusBadRequest, "invalid_rank", apierrors.TypeInvalidRequest, "rank must be an integer").Write(c)
			return
		}
		ch, ok := h.catalog.ByRank(rank)
		if !ok {
			apierrors.New(http.StatusNotFound, "channel_not_found", apierrors.TypeNotFound, "no channel with rank "+strconv.Itoa(rank)).Write(c)
			return
		}
		channels = []catalog.Channel{ch}
	case c.Query("q") != "":
		channels = h.catalog.Search(c.Query("q"), queryInt(c, "limit", 0))
	case c.Query("top") != "":
		channels = h.catalog.Top(queryInt(c, "top", 10))
	default:
		channels = h.catalog.All()
	}
	if channels == nil {
		channels = []catalog.Channel{}
	}
	c.JSON(http.StatusOK, gin.H{
		"channels": channels,
		"display":  h.catalog.DisplayNames(channels),
		"stats":    h.catalog.Stats(),
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
