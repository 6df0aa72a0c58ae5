package ops

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/config"
	"leadchat-server/services/routing-api/internal/domain/delivery"
	"leadchat-server/services/routing-api/internal/domain/reconcile"
	"leadchat-server/services/routing-api/internal/infrastructure/metrics"
	"leadchat-server/services/routing-api/internal/interfaces/httpserver/responses"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// OpsRoute exposes the background maintenance passes for on-demand runs.
// The cron scheduler drives the same code on its own cadence.
type OpsRoute struct {
	reconciler *reconcile.Reconciler
	deliveries *delivery.Service
	config     *config.Config
}

func NewOpsRoute(reconciler *reconcile.Reconciler, deliveries *delivery.Service, cfg *config.Config) *OpsRoute {
	return &OpsRoute{
		reconciler: reconciler,
		deliveries: deliveries,
		config:     cfg,
	}
}

func (route *OpsRoute) RegisterRouter(router gin.IRouter) {
	opsGroup := router.Group("/ops")
	opsGroup.POST("/reconcile", route.reconcileNow)
	opsGroup.POST("/resend", route.resendNow)
}

type reconcileRequest struct {
	BatchLimit int `json:"batch_limit"`
}

// reconcileNow godoc
// @Summary Run a reconciliation pass
// @Description Scan the agent-channel log oldest first and project entries missing from the unified timeline. Safe to run repeatedly; already synchronized entries are skipped.
// @Tags Ops API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body reconcileRequest false "Optional batch limit override"
// @Success 200 {object} reconcile.Report "Pass summary"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/ops/reconcile [post]
func (route *OpsRoute) reconcileNow(reqCtx *gin.Context) {
	var req reconcileRequest
	if reqCtx.Request.ContentLength > 0 {
		if err := reqCtx.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "4e51bc1f-ad4a-4ac2-bf1b-ae7f8a9b0c11")
			return
		}
	}

	batchLimit := req.BatchLimit
	if batchLimit <= 0 {
		batchLimit = route.config.ReconcileBatchLimit
	}

	report, err := route.reconciler.Reconcile(reqCtx.Request.Context(), batchLimit)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to run reconciliation")
		return
	}

	metrics.ReconciledRowsTotal.WithLabelValues("synced").Add(float64(report.Synced))
	metrics.ReconciledRowsTotal.WithLabelValues("skipped").Add(float64(report.Skipped))
	metrics.ReconciledRowsTotal.WithLabelValues("failed").Add(float64(report.Failed))

	reqCtx.JSON(http.StatusOK, report)
}

type resendRequest struct {
	LookbackHours int `json:"lookback_hours"`
}

// resendNow godoc
// @Summary Run a resend pass
// @Description Re-drive notification deliveries that never received a transport acknowledgment inside the lookback window. Attempts are paced at least one second apart, so large passes take time.
// @Tags Ops API
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body resendRequest false "Optional lookback override in hours"
// @Success 200 {object} delivery.Summary "Pass summary, returned even when every item failed"
// @Failure 500 {object} responses.ErrorResponse "Internal server error"
// @Router /v1/ops/resend [post]
func (route *OpsRoute) resendNow(reqCtx *gin.Context) {
	var req resendRequest
	if reqCtx.Request.ContentLength > 0 {
		if err := reqCtx.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid request body", "5f62cd2a-be5b-4bd3-ca2c-bf8a9b0c1d22")
			return
		}
	}

	lookback := route.config.ResendLookback
	if req.LookbackHours > 0 {
		lookback = time.Duration(req.LookbackHours) * time.Hour
	}

	summary, err := route.deliveries.ResendFailed(reqCtx.Request.Context(), lookback)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to run resend pass")
		return
	}

	for _, result := range summary.Results {
		metrics.RecordResend(string(result.Status))
	}

	reqCtx.JSON(http.StatusOK, summary)
}
