package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipments/internal/api"
	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"
)

func (s *Server) handleAPICatalog(c *gin.Context) {
	policy := s.svc.Policy()
	c.JSON(http.StatusOK, api.Catalog{
		Staff:          s.catalog.Staff,
		Vegetables:     s.catalog.Vegetables,
		QuantityPolicy: policy.Name,
		QuantityUnit:   policy.Unit,
		QuantityStep:   policy.Step().String(),
	})
}

func (s *Server) handleAPICreateShipment(c *gin.Context) {
	var req api.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, api.CodeInvalidRequest, "request body is not valid JSON")
		return
	}

	rec, err := req.Record()
	if err != nil {
		apiError(c, http.StatusUnprocessableEntity, api.CodeValidationFailed, err.Error())
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	stored, err := s.svc.Record(ctx, rec)
	if err != nil {
		s.apiFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.FromRecord(stored))
}

// handleAPIListShipments returns every record, or those of ?date= when given.
func (s *Server) handleAPIListShipments(c *gin.Context) {
	var filter *core.Date
	if raw := c.Query("date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, api.CodeInvalidRequest, err.Error())
			return
		}
		filter = &d
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	records, err := s.svc.List(ctx, filter)
	if err != nil {
		s.apiFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromRecords(records))
}

func (s *Server) handleAPISummary(c *gin.Context) {
	date, err := ParseDateParam(c.Query("date"), s.now())
	if err != nil {
		apiError(c, http.StatusBadRequest, api.CodeInvalidRequest, err.Error())
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	sum, err := s.svc.Summary(ctx, date)
	if err != nil {
		s.apiFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, api.FromSummary(sum))
}

// apiFailure maps service errors to status codes.
func (s *Server) apiFailure(c *gin.Context, err error) {
	switch {
	case core.IsValidation(err):
		apiError(c, http.StatusUnprocessableEntity, api.CodeValidationFailed, err.Error())
	case store.IsUnavailable(err):
		log.FromContext(c.Request.Context()).Warn("store unavailable",
			log.ErrorType(storeErrorType(err)), zap.Error(err))
		apiError(c, http.StatusServiceUnavailable, api.CodeStoreUnavailable, "shipment store is unavailable")
	default:
		log.FromContext(c.Request.Context()).Error("request failed",
			log.ErrorType(log.ErrorTypeInternal), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "", "internal error")
	}
}

func apiError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, api.Error{Error: msg, Code: code})
}
