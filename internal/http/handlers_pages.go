package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/store"
)

func (s *Server) today() core.Date {
	return core.DateOf(s.now().In(time.Local))
}

func (s *Server) handleEntry(c *gin.Context) {
	s.renderPage(c, http.StatusOK, "entry.html", newEntryView(s.catalog, s.svc.Policy(), s.today()))
}

// handleCreateShipment stores one entry form submission and answers with an
// HTMX fragment.
func (s *Server) handleCreateShipment(c *gin.Context) {
	logger := log.FromContext(c.Request.Context())

	if err := c.Request.ParseForm(); err != nil {
		logger.Warn("parse form failed", zap.Error(err))
		BadRequestError("Invalid request format").Send(c)
		return
	}

	policy := s.svc.Policy()
	rec, err := ParseShipmentForm(c.Request.PostForm, policy)
	if err != nil {
		logger.Info("rejected shipment entry", log.Op(log.OpValidate),
			log.ErrorType(log.ErrorTypeValidation), zap.Error(err))
		UnprocessableEntityError(validationMessage(err, policy)).Send(c)
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	stored, err := s.svc.Record(ctx, rec)
	if err != nil {
		if core.IsValidation(err) {
			UnprocessableEntityError(validationMessage(err, policy)).Send(c)
			return
		}
		logger.Error("failed to save shipment", append(log.Record(rec),
			log.Op(log.OpAppend), log.ErrorType(storeErrorType(err)), zap.Error(err))...)
		msg := "The shipment could not be saved. Please try again."
		if !store.IsUnavailable(err) {
			msg = "Unexpected error while saving the shipment."
		}
		InternalServerError(msg).TriggerErrorNotification(msg).Send(c)
		return
	}

	body, err := s.renderTemplate("shipment_saved", newSavedView(stored, policy))
	if err != nil {
		logger.Error("template execution failed", log.Op(log.OpRender),
			zap.String("template", "shipment_saved"), zap.Error(err))
	}

	NewHTMXResponse().
		BodyHTML(body).
		TriggerShipmentRecorded(stored.ShipmentDate.String(), stored.Vegetable).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Saved %s of %s for %s",
			policy.Format(stored.Quantity), stored.Vegetable, stored.ShipmentDate)).
		Send(c)
}

// handleSummary renders the dashboard for ?date=, defaulting to today. HTMX
// requests get only the panel.
func (s *Server) handleSummary(c *gin.Context) {
	logger := log.FromContext(c.Request.Context())
	today := s.today()
	partial := c.GetHeader("HX-Request") == "true"

	date, err := ParseDateParam(c.Query("date"), s.now())
	if err != nil {
		if partial {
			BadRequestError(validationMessage(err, s.svc.Policy())).Send(c)
			return
		}
		s.renderPage(c, http.StatusBadRequest, "summary.html",
			summaryView{Date: c.Query("date"), Today: today.String(), Error: validationMessage(err, s.svc.Policy())})
		return
	}

	ctx, cancel := s.storeContext(c)
	defer cancel()

	sum, err := s.svc.Summary(ctx, date)
	if err != nil {
		logger.Error("failed to load summary", log.Op(log.OpSummary), log.ErrorType(storeErrorType(err)),
			zap.String(log.FieldShipmentDate, date.String()), zap.Error(err))
		view := summaryView{
			Date:  date.String(),
			Today: today.String(),
			Error: "Shipment data is unavailable right now. Please reload in a moment.",
		}
		status := http.StatusServiceUnavailable
		if !store.IsUnavailable(err) {
			status = http.StatusInternalServerError
			view.Error = "Unexpected error while loading the summary."
		}
		s.renderSummary(c, status, partial, view)
		return
	}

	s.renderSummary(c, http.StatusOK, partial, newSummaryView(sum, s.svc.Policy(), today))
}

func (s *Server) renderSummary(c *gin.Context, status int, partial bool, view summaryView) {
	name := "summary.html"
	if partial {
		name = "summary_panel"
	}
	s.renderPage(c, status, name, view)
}
