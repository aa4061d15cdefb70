// README: Order handlers for create/get/list and lifecycle actions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laborhub/internal/http/middleware"
	"laborhub/internal/modules/order"
	"laborhub/internal/types"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type createOrderReq struct {
	Title           string   `json:"title" binding:"required"`
	ServiceCategory string   `json:"service_category" binding:"required"`
	RequiredSkills  []string `json:"required_skills"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	PayAmount       int64    `json:"pay_amount"`
	PayCurrency     string   `json:"pay_currency"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	currency := req.PayCurrency
	if currency == "" {
		currency = "TWD"
	}
	id, err := h.order.Create(c.Request.Context(), order.CreateCommand{
		EmployerID:      types.ID(middleware.ActorID(c)),
		Title:           req.Title,
		ServiceCategory: req.ServiceCategory,
		RequiredSkills:  req.RequiredSkills,
		Location:        types.Point{Lat: req.Lat, Lng: req.Lng},
		Pay:             types.Money{Amount: req.PayAmount, Currency: currency},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"order_id": id, "status": order.StatusPending})
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.order.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orderView(o))
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.order.ListByEmployer(c.Request.Context(), types.ID(middleware.ActorID(c)), 0)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(orders))
	for i := range orders {
		out = append(out, orderView(&orders[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": out})
}

// ListOpen returns the board of dispatchable orders for browsing workers.
func (h *OrderHandler) ListOpen(c *gin.Context) {
	orders, err := h.order.ListOpenUnassigned(c.Request.Context(), 0)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(orders))
	for i := range orders {
		out = append(out, orderView(&orders[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": out})
}

type orderActionReq struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// Action executes a lifecycle transition: start and complete for the
// assigned worker, cancel for the employer or the assigned worker.
func (h *OrderHandler) Action(c *gin.Context) {
	var req orderActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	orderID := types.ID(c.Param("id"))
	actor := types.ID(middleware.ActorID(c))
	ctx := c.Request.Context()

	var err error
	switch req.Action {
	case "start":
		err = h.order.Start(ctx, order.StartCommand{OrderID: orderID, WorkerID: actor})
	case "complete":
		err = h.order.Complete(ctx, order.CompleteCommand{OrderID: orderID, WorkerID: actor})
	case "cancel":
		err = h.order.Cancel(ctx, order.CancelCommand{OrderID: orderID, ActorID: actor, Reason: req.Reason})
	default:
		writeError(c, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}

	o, err := h.order.Get(ctx, orderID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": o.Status})
}

func orderView(o *order.Order) gin.H {
	v := gin.H{
		"order_id":         o.ID,
		"title":            o.Title,
		"service_category": o.ServiceCategory,
		"required_skills":  o.RequiredSkills,
		"lat":              o.Location.Lat,
		"lng":              o.Location.Lng,
		"address":          o.Address,
		"pay_amount":       o.Pay.Amount,
		"pay_currency":     o.Pay.Currency,
		"status":           o.Status,
		"dispatch_status":  o.DispatchStatus,
		"created_at":       o.CreatedAt,
	}
	if o.WorkerID != nil {
		v["worker_id"] = *o.WorkerID
	}
	return v
}
