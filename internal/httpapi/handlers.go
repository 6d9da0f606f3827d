package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"disaster-platform/internal/auth"
	"disaster-platform/internal/disaster"
	"disaster-platform/internal/event"
	"disaster-platform/internal/geo"
	"disaster-platform/internal/lookup"
	"disaster-platform/internal/resource"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Disasters *disaster.Service
	Resources *resource.Service
	Lookups   *lookup.Gateway
	Bus       *event.Broadcaster

	DefaultRadiusMeters float64
}

// --- Disasters ---

func (h Handlers) CreateDisaster(c *gin.Context) {
	actor, err := auth.ActorFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req disaster.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	d, err := h.Disasters.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h Handlers) ListDisasters(c *gin.Context) {
	out, err := h.Disasters.List(c.Request.Context(), c.Query("tag"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if out == nil {
		out = []disaster.Disaster{}
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetDisaster(c *gin.Context) {
	d, err := h.Disasters.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Handlers) UpdateDisaster(c *gin.Context) {
	actor, err := auth.ActorFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req disaster.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	d, err := h.Disasters.Update(c.Request.Context(), c.Param("id"), actor.ID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Handlers) DeleteDisaster(c *gin.Context) {
	actor, err := auth.ActorFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.Disasters.Delete(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Resources ---

// ListResourcesNear serves GET /disasters/:id/resources?lat&lon[&radius_m].
func (h Handlers) ListResourcesNear(c *gin.Context) {
	disasterID := c.Param("id")

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if c.Query("lat") == "" || c.Query("lon") == "" || latErr != nil || lonErr != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "lat and lon query params required"})
		return
	}

	radius := h.DefaultRadiusMeters
	if raw := c.Query("radius_m"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "radius_m must be a number"})
			return
		}
		radius = r
	}

	// The record must exist; querying resources of a deleted disaster is
	// a NotFound, not an empty list.
	if _, err := h.Disasters.Get(c.Request.Context(), disasterID); err != nil {
		abortWithError(c, err)
		return
	}

	out, err := h.Resources.Near(c.Request.Context(), disasterID, geo.Point{Lat: lat, Lon: lon}, radius)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if out == nil {
		out = []resource.Resource{}
	}

	h.Bus.Publish(event.New(event.KindResourcesUpdated, gin.H{
		"disaster_id": disasterID,
		"data":        out,
	}))
	c.JSON(http.StatusOK, out)
}

// --- Lookups ---

type geocodeRequest struct {
	Description string `json:"description"`
}

func (h Handlers) Geocode(c *gin.Context) {
	var req geocodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Description == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	res, err := h.Lookups.Geocode(c.Request.Context(), req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, flatten(res))
}

func (h Handlers) SocialMedia(c *gin.Context) {
	res, err := h.Lookups.SocialMedia(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cached": res.Cached, "data": res.Value})
}

func (h Handlers) OfficialUpdates(c *gin.Context) {
	res, err := h.Lookups.OfficialUpdates(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cached": res.Cached, "data": res.Value})
}

type verifyImageRequest struct {
	ImageURL string `json:"image_url"`
}

func (h Handlers) VerifyImage(c *gin.Context) {
	var req verifyImageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageURL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "image_url is required"})
		return
	}

	res, err := h.Lookups.VerifyImage(c.Request.Context(), req.ImageURL)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, flatten(res))
}

// flatten merges a lookup payload object with its cached flag, matching the
// wire shape observers already consume.
func flatten(res lookup.Result) map[string]any {
	out := map[string]any{}
	// Values are produced by the gateway's own json.Marshal; a decode
	// failure would mean a corrupted cache entry, and the response then
	// carries the cached flag alone.
	_ = json.Unmarshal(res.Value, &out)
	out["cached"] = res.Cached
	return out
}
