// README: Worker handlers — profile, availability, location heartbeat.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laborhub/internal/http/middleware"
	"laborhub/internal/modules/location"
	"laborhub/internal/modules/worker"
	"laborhub/internal/types"
)

type WorkerHandler struct {
	workers  *worker.Service
	location *location.Service
}

func NewWorkerHandler(w *worker.Service, l *location.Service) *WorkerHandler {
	return &WorkerHandler{workers: w, location: l}
}

func (h *WorkerHandler) GetProfile(c *gin.Context) {
	p, err := h.workers.Get(c.Request.Context(), types.ID(middleware.ActorID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, profileView(p))
}

type updateProfileReq struct {
	Name              string   `json:"name" binding:"required"`
	Phone             string   `json:"phone"`
	Avatar            *string  `json:"avatar"`
	ServiceCategories []string `json:"service_categories"`
	Skills            []string `json:"skills"`
}

func (h *WorkerHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.workers.UpdateProfile(c.Request.Context(), worker.UpdateProfileCommand{
		UserID:            types.ID(middleware.ActorID(c)),
		Name:              req.Name,
		Phone:             req.Phone,
		Avatar:            req.Avatar,
		ServiceCategories: req.ServiceCategories,
		Skills:            req.Skills,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"updated": true})
}

type setStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus flips the worker's availability. Going offline also drops the
// worker from the geo index so matching stops seeing them immediately.
func (h *WorkerHandler) SetStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	status := worker.OnlineStatus(req.Status)
	if !worker.ValidOnlineStatus(status) {
		writeError(c, http.StatusBadRequest, "unknown status")
		return
	}

	ctx := c.Request.Context()
	workerID := types.ID(middleware.ActorID(c))
	if err := h.workers.SetOnlineStatus(ctx, workerID, status); err != nil {
		writeServiceError(c, err)
		return
	}
	if status == worker.StatusOffline {
		if err := h.location.Deactivate(ctx, workerID); err != nil {
			writeServiceError(c, err)
			return
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"status": status})
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *WorkerHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	err := h.location.Update(c.Request.Context(), types.ID(middleware.ActorID(c)), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"updated": true})
}

func (h *WorkerHandler) ListOnline(c *gin.Context) {
	profiles, err := h.workers.ListOnline(c.Request.Context(), 0)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(profiles))
	for i := range profiles {
		out = append(out, profileView(&profiles[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"workers": out})
}

func profileView(p *worker.Profile) gin.H {
	v := gin.H{
		"user_id":            p.UserID,
		"name":               p.Name,
		"phone":              p.Phone,
		"online_status":      p.OnlineStatus,
		"account_status":     p.AccountStatus,
		"service_categories": p.ServiceCategories,
		"skills":             p.Skills,
		"average_rating":     p.AverageRating,
		"acceptance_rate":    p.AcceptanceRate,
		"completion_rate":    p.CompletionRate,
		"completed_orders":   p.CompletedOrders,
	}
	if p.Avatar != nil {
		v["avatar"] = *p.Avatar
	}
	if p.LastLocation != nil {
		v["lat"] = p.LastLocation.Lat
		v["lng"] = p.LastLocation.Lng
	}
	return v
}
