package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rollcall/internal/domain"
	"rollcall/internal/domain/entities"
	"rollcall/internal/platform/sl"
)

type handlers struct {
	log    *slog.Logger
	engine Engine
	tr     Translator
	now    func() time.Time
}

func (h *handlers) logger(r *http.Request) *slog.Logger {
	return h.log.With(slog.String("request_id", middleware.GetReqID(r.Context())))
}

// fail logs and renders err. Business rule rejections are logged at debug.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger := h.logger(r)
	if StatusFor(err) >= http.StatusInternalServerError {
		logger.Error(msg, sl.Err(err))
	} else {
		logger.Debug(msg, sl.Err(err))
	}
	renderError(w, r, h.tr, err)
}

func (h *handlers) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger(r).Debug("bind request", sl.Err(err))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error("invalid_request", err.Error()))
}

func (h *handlers) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := render.Bind(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	event := &entities.Event{ID: req.ID, Title: req.Title, Capacity: req.Capacity}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt.UTC()
	}
	if err := h.engine.CreateEvent(r.Context(), event); err != nil {
		h.fail(w, r, "create event", err)
		return
	}
	h.logger(r).Info("event created", slog.String("event_id", event.ID))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Ok(newEventView(event)))
}

func (h *handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.engine.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.fail(w, r, "get event", err)
		return
	}
	render.JSON(w, r, Ok(newEventView(event)))
}

func (h *handlers) reschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := render.Bind(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	if err := h.engine.RescheduleEvent(r.Context(), eventID, req.Title, req.EndsAt.UTC()); err != nil {
		h.fail(w, r, "reschedule event", err)
		return
	}
	h.getEvent(w, r)
}

func (h *handlers) updateCapacity(w http.ResponseWriter, r *http.Request) {
	var req capacityRequest
	if err := render.Bind(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	promoted, err := h.engine.UpdateCapacity(r.Context(), eventID, *req.Capacity)
	if err != nil {
		h.fail(w, r, "update capacity", err)
		return
	}
	if promoted == nil {
		promoted = []string{}
	}
	render.JSON(w, r, Ok(map[string]any{"promoted": promoted}))
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.Bind(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	eventID := chi.URLParam(r, "eventID")
	if !*req.CanRegister {
		h.fail(w, r, "register", domain.Fail("register", eventID, req.UserID, domain.ErrNotAuthorized))
		return
	}

	res, err := h.engine.Register(r.Context(), eventID, req.UserID)
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Ok(newRegisterView(res)))
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.Cancel(r.Context(), chi.URLParam(r, "eventID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "cancel", err)
		return
	}
	render.JSON(w, r, Ok(map[string]string{
		"status":           res.Status,
		"promoted_user_id": res.PromotedUserID,
	}))
}

func (h *handlers) listParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListParticipants(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.fail(w, r, "list participants", err)
		return
	}
	views := make([]participationView, 0, len(list))
	for i := range list {
		views = append(views, newParticipationView(&list[i], false))
	}
	render.JSON(w, r, Ok(views))
}

func (h *handlers) getParticipation(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.GetParticipation(r.Context(), chi.URLParam(r, "eventID"), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, "get participation", err)
		return
	}
	render.JSON(w, r, Ok(newParticipationView(p, true)))
}

func (h *handlers) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := render.Bind(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	res, err := h.engine.Scan(r.Context(), chi.URLParam(r, "eventID"), req.Token, req.ScannedBy)
	if err != nil {
		h.fail(w, r, "scan", err)
		return
	}
	body := map[string]any{
		"user_id":     res.UserID,
		"attended_at": res.AttendedAt,
	}
	if res.PromotedUserID != "" {
		body["promoted_user_id"] = res.PromotedUserID
	}
	render.JSON(w, r, Ok(body))
}

func (h *handlers) sweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.SweepExpired(r.Context(), h.now())
	if err != nil {
		h.fail(w, r, "sweep", err)
		return
	}
	h.logger(r).Info("manual sweep", slog.Int("processed", res.Processed), slog.Int("backfilled", res.Backfilled))
	render.JSON(w, r, Ok(map[string]int{
		"processed":  res.Processed,
		"backfilled": res.Backfilled,
	}))
}

func (h *handlers) healthz(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				h.logger(r).Warn("health check failed", sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, Error("unhealthy", err.Error()))
				return
			}
		}
		render.JSON(w, r, Ok(nil))
	}
}

func (h *handlers) notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, Error("not_found", "Requested resource not found"))
}

func (h *handlers) notAllowed(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusMethodNotAllowed)
	render.JSON(w, r, Error("method_not_allowed", "Method not allowed"))
}
