package requests

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"leadchat-server/services/routing-api/internal/domain/query"
	"leadchat-server/services/routing-api/internal/utils/platformerrors"
)

// GetPaginationFromQuery parses cursor pagination from limit/after/order
// query parameters. The after cursor is the numeric row id of the last item
// of the previous page.
func GetPaginationFromQuery(reqCtx *gin.Context) (*query.Pagination, error) {
	ctx := reqCtx.Request.Context()
	pagination := query.NewPagination(nil, nil, "asc")

	if rawLimit := strings.TrimSpace(reqCtx.Query("limit")); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit <= 0 {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation, "limit must be a positive integer", err, "5feb229c-d4f7-4d3a-a6a8-1b2c3d4e5f66")
		}
		pagination.Limit = &limit
	}

	if rawAfter := strings.TrimSpace(reqCtx.Query("after")); rawAfter != "" {
		after, err := strconv.ParseUint(rawAfter, 10, 64)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation, "after must be a numeric cursor", err, "60fc33ad-e508-4e4b-b7b9-2c3d4e5f6a77")
		}
		cursor := uint(after)
		pagination.After = &cursor
	}

	if rawOrder := strings.ToLower(strings.TrimSpace(reqCtx.Query("order"))); rawOrder != "" {
		if rawOrder != "asc" && rawOrder != "desc" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation, "order must be asc or desc", nil, "710d44be-f619-4f5c-c8ca-3d4e5f6a7b88")
		}
		pagination.Order = rawOrder
	}

	return pagination, nil
}
