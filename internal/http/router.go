// README: HTTP router registration.
package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"laborhub/internal/ai"
	"laborhub/internal/http/handlers"
	"laborhub/internal/http/middleware"
	"laborhub/internal/modules/aiquota"
	"laborhub/internal/modules/dispatch"
	"laborhub/internal/modules/location"
	"laborhub/internal/modules/order"
	"laborhub/internal/modules/payquote"
	"laborhub/internal/modules/worker"
)

type RouterDeps struct {
	Order     *order.Service
	Dispatch  *dispatch.Service
	Worker    *worker.Service
	Location  *location.Service
	Quotes    *payquote.Service
	Explainer ai.Explainer
	Quota     *aiquota.Service
	Log       *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(nethttp.StatusOK, "OK")
	})

	api := r.Group("/api")
	api.Use(middleware.Auth())

	quoteHandler := handlers.NewQuoteHandler(deps.Quotes)
	api.POST("/quotes", quoteHandler.Quote)

	orderHandler := handlers.NewOrderHandler(deps.Order)
	api.POST("/orders", orderHandler.Create)
	api.GET("/orders", orderHandler.ListMine)
	api.GET("/orders/open", orderHandler.ListOpen)
	api.GET("/orders/:id", orderHandler.Get)
	api.POST("/orders/:id/actions", orderHandler.Action)

	dispatchHandler := handlers.NewDispatchHandler(deps.Dispatch, deps.Order, deps.Explainer, deps.Quota)
	api.GET("/orders/:id/candidates", dispatchHandler.Candidates)
	api.POST("/orders/:id/dispatch/auto", dispatchHandler.Auto)
	api.POST("/orders/:id/dispatch", dispatchHandler.Manual)
	api.POST("/orders/:id/dispatch/reopen", dispatchHandler.Reopen)
	api.GET("/orders/:id/dispatch/history", dispatchHandler.History)
	api.POST("/orders/:id/dispatch/explain", dispatchHandler.Explain)
	api.POST("/orders/:id/accept", dispatchHandler.Accept)
	api.POST("/orders/:id/reject", dispatchHandler.Reject)

	workerHandler := handlers.NewWorkerHandler(deps.Worker, deps.Location)
	api.GET("/workers", workerHandler.ListOnline)
	api.GET("/workers/me", workerHandler.GetProfile)
	api.PUT("/workers/me", workerHandler.UpdateProfile)
	api.PUT("/workers/me/status", workerHandler.SetStatus)
	api.PUT("/workers/me/location", workerHandler.UpdateLocation)

	return r
}
