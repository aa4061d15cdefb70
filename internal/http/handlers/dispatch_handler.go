// README: Dispatch handlers — candidates, auto/manual dispatch, worker responses.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laborhub/internal/ai"
	"laborhub/internal/http/middleware"
	"laborhub/internal/modules/aiquota"
	"laborhub/internal/modules/dispatch"
	"laborhub/internal/modules/matching"
	"laborhub/internal/modules/order"
	"laborhub/internal/types"
)

type DispatchHandler struct {
	dispatch  *dispatch.Service
	orders    *order.Service
	explainer ai.Explainer
	quota     *aiquota.Service
}

func NewDispatchHandler(d *dispatch.Service, o *order.Service, e ai.Explainer, q *aiquota.Service) *DispatchHandler {
	return &DispatchHandler{dispatch: d, orders: o, explainer: e, quota: q}
}

// Candidates returns the ranked worker list for the employer's order.
func (h *DispatchHandler) Candidates(c *gin.Context) {
	candidates, err := h.dispatch.CandidatesForOrder(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.ActorID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"candidates": candidateViews(candidates)})
}

// Auto dispatches the order to the best-ranked candidate.
func (h *DispatchHandler) Auto(c *gin.Context) {
	res, err := h.dispatch.AutoDispatch(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.ActorID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resultView(res))
}

type manualDispatchReq struct {
	WorkerID string `json:"worker_id" binding:"required"`
}

// Manual dispatches the order to an employer-chosen worker.
func (h *DispatchHandler) Manual(c *gin.Context) {
	var req manualDispatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.dispatch.ManualDispatch(c.Request.Context(), types.ID(c.Param("id")), types.ID(req.WorkerID), types.ID(middleware.ActorID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, resultView(res))
}

// Accept lets the targeted worker confirm a dispatch, or claim an open
// order directly when nothing is pending.
func (h *DispatchHandler) Accept(c *gin.Context) {
	if err := h.dispatch.Accept(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.ActorID(c))); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": order.StatusAccepted})
}

type rejectReq struct {
	Reason string `json:"reason"`
}

func (h *DispatchHandler) Reject(c *gin.Context) {
	var req rejectReq
	_ = c.ShouldBindJSON(&req) // reason is optional; an empty body is fine
	if err := h.dispatch.Reject(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.ActorID(c)), req.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"dispatch_status": order.DispatchRejected})
}

// Reopen returns a rejected or timed-out order to the dispatchable pool.
func (h *DispatchHandler) Reopen(c *gin.Context) {
	if err := h.dispatch.Reopen(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.ActorID(c))); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"dispatch_status": order.DispatchUnassigned})
}

func (h *DispatchHandler) History(c *gin.Context) {
	records, err := h.dispatch.History(c.Request.Context(), types.ID(c.Param("id")), types.ID(middleware.ActorID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(records))
	for _, r := range records {
		v := gin.H{
			"record_id":       r.ID,
			"worker_id":       r.WorkerID,
			"type":            r.Type,
			"status":          r.Status,
			"priority_score":  r.PriorityScore,
			"distance_m":      r.Distance,
			"accept_deadline": r.AcceptDeadline,
			"dispatched_at":   r.DispatchedAt,
		}
		if r.RejectReason != nil {
			v["reject_reason"] = *r.RejectReason
		}
		out = append(out, v)
	}
	writeJSON(c, http.StatusOK, gin.H{"records": out})
}

// Explain produces a natural-language summary of the candidate ranking.
// Costs one monthly AI credit per call.
func (h *DispatchHandler) Explain(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := types.ID(c.Param("id"))
	actor := types.ID(middleware.ActorID(c))

	o, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if o.EmployerID != actor {
		writeServiceError(c, dispatch.ErrUnauthorized)
		return
	}

	candidates, err := h.dispatch.CandidatesForOrder(ctx, orderID, actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if h.quota != nil {
		if err := h.quota.UseCredit(ctx, string(actor)); err != nil {
			writeServiceError(c, err)
			return
		}
	}

	summary, err := h.explainer.ExplainMatch(ctx, o.Title, candidates)
	if err != nil {
		writeError(c, http.StatusBadGateway, "explanation unavailable")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"summary":    summary,
		"candidates": candidateViews(candidates),
	})
}

func resultView(res dispatch.Result) gin.H {
	v := gin.H{"success": res.Success, "message": res.Message}
	if res.WorkerID != "" {
		v["worker_id"] = res.WorkerID
	}
	return v
}

func candidateViews(candidates []matching.Candidate) []gin.H {
	out := make([]gin.H, 0, len(candidates))
	for _, cand := range candidates {
		v := gin.H{
			"worker_id":        cand.WorkerID,
			"name":             cand.Name,
			"distance_m":       cand.Distance,
			"rating":           cand.Rating,
			"acceptance_rate":  cand.AcceptanceRate,
			"completion_rate":  cand.CompletionRate,
			"completed_orders": cand.CompletedOrders,
			"score":            cand.Score,
			"reasons":          cand.Reasons,
		}
		if cand.Avatar != nil {
			v["avatar"] = *cand.Avatar
		}
		out = append(out, v)
	}
	return out
}
