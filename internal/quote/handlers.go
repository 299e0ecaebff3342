package quote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/webquote/internal/catalog"
	"github.com/noah-isme/webquote/internal/common"
	"github.com/noah-isme/webquote/internal/events"
	"github.com/noah-isme/webquote/internal/lock"
	"github.com/noah-isme/webquote/internal/selection"
	"github.com/noah-isme/webquote/internal/session"
)

// SessionStore persists selections between wizard steps.
type SessionStore interface {
	Get(ctx context.Context, id string) (selection.Selection, error)
	Put(ctx context.Context, id string, sel selection.Selection) error
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, fn func(*selection.Selection) error) (selection.Selection, error)
}

// Publisher emits domain events.
type Publisher interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Handler exposes the quote API.
type Handler struct {
	Service  *Service
	Sessions SessionStore
	Share    *ShareSigner
	Events   Publisher
	Validate *validator.Validate
	Logger   zerolog.Logger
	BaseURL  string

	// Optional per-route middleware; nil means none.
	PromoLimit  func(http.Handler) http.Handler
	EmailLimit  func(http.Handler) http.Handler
	Idempotency func(http.Handler) http.Handler
}

func passthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

// Routes mounts the API under r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/catalog", h.Catalog)
	r.Get("/bundles", h.Bundles)
	r.Post("/quotes/preview", h.Preview)
	r.Post("/quotes/pdf", h.PDF)
	r.Post("/quotes/xlsx", h.Excel)
	r.With(passthrough(h.EmailLimit), passthrough(h.Idempotency)).Post("/quotes/email", h.Email)
	r.With(passthrough(h.PromoLimit)).Post("/promo/validate", h.ValidatePromo)
	r.Get("/shared/{token}", h.Shared)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Put("/", h.ReplaceSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/bundle", h.SwapBundle)
			r.Post("/items", h.EditItems)
			r.Post("/share", h.ShareSession)
		})
	})
}

// Catalog lists every category and item.
func (h *Handler) Catalog(w http.ResponseWriter, _ *http.Request) {
	common.Data(w, http.StatusOK, map[string]any{"categories": h.Service.Catalog()})
}

// Bundles lists the bundles of a page mode.
func (h *Handler) Bundles(w http.ResponseWriter, r *http.Request) {
	mode := catalog.ParsePageMode(r.URL.Query().Get("mode"))
	common.Data(w, http.StatusOK, map[string]any{"mode": mode, "bundles": h.Service.Bundles(mode)})
}

// Preview prices a submitted selection.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in selection.Input
	if !decode(w, r, &in) {
		return
	}
	common.Data(w, http.StatusOK, h.Service.Price(h.Service.FromInput(in)))
}

// ValidatePromo checks a promo code without pricing anything.
func (h *Handler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	common.Data(w, http.StatusOK, h.Service.ValidatePromo(req.Code))
}

type documentRequest struct {
	selection.Input
	Customer  string `json:"customer"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) documentSelection(w http.ResponseWriter, r *http.Request) (documentRequest, selection.Selection, bool) {
	var req documentRequest
	if !decode(w, r, &req) {
		return req, selection.Selection{}, false
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return req, h.Service.FromInput(req.Input), true
	}
	sel, err := h.loadSession(r.Context(), req.SessionID)
	if err != nil {
		h.writeError(w, err)
		return req, selection.Selection{}, false
	}
	return req, sel, true
}

// PDF downloads the quote as PDF.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	req, sel, ok := h.documentSelection(w, r)
	if !ok {
		return
	}
	data, name, err := h.Service.PDF(sel, strings.TrimSpace(req.Customer), shortRef(req.SessionID))
	if err != nil {
		h.Logger.Error().Err(err).Msg("quote_pdf_failed")
		common.JSONError(w, http.StatusInternalServerError, "EXPORT_FAILED", "failed to render pdf", nil)
		return
	}
	common.Attachment(w, "application/pdf", name, data)
}

// Excel downloads the quote as XLSX.
func (h *Handler) Excel(w http.ResponseWriter, r *http.Request) {
	req, sel, ok := h.documentSelection(w, r)
	if !ok {
		return
	}
	data, name, err := h.Service.Excel(sel, strings.TrimSpace(req.Customer), shortRef(req.SessionID))
	if err != nil {
		h.Logger.Error().Err(err).Msg("quote_xlsx_failed")
		common.JSONError(w, http.StatusInternalServerError, "EXPORT_FAILED", "failed to render spreadsheet", nil)
		return
	}
	common.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name, data)
}

type emailRequest struct {
	Name      string           `json:"name" validate:"required,max=120"`
	Email     string           `json:"email" validate:"required,email,max=254"`
	Company   string           `json:"company" validate:"max=160"`
	Message   string           `json:"message" validate:"max=2000"`
	SessionID string           `json:"sessionId" validate:"omitempty,uuid"`
	Selection *selection.Input `json:"selection"`
}

// Email accepts a request to email the quote. Delivery happens asynchronously.
func (h *Handler) Email(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "email delivery is not configured", nil)
		return
	}
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid email request", validationDetails(err))
			return
		}
	}

	var sel selection.Selection
	switch {
	case req.Selection != nil:
		sel = h.Service.FromInput(*req.Selection)
	case req.SessionID != "":
		loaded, err := h.loadSession(r.Context(), req.SessionID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		sel = loaded
	default:
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "selection or sessionId is required", nil)
		return
	}

	view := h.Service.Price(sel)
	ev, err := h.Events.Emit(r.Context(), events.TopicQuoteRequested, req.SessionID, events.QuoteRequested{
		Name:                     req.Name,
		Email:                    req.Email,
		Company:                  strings.TrimSpace(req.Company),
		Message:                  strings.TrimSpace(req.Message),
		Selection:                sel,
		BundleID:                 sel.BundleID,
		OneTimeDevelopmentCost:   view.Totals.OneTimeDevelopmentCost,
		TotalMonthlyCost:         view.Totals.TotalMonthlyCost,
		DiscountedFirstYearTotal: view.Totals.DiscountedFirstYearTotal,
	})
	if err != nil {
		h.Logger.Error().Err(err).Str("request_id", ev.ID).Msg("quote_email_request_failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to queue quote email", nil)
		return
	}
	h.Logger.Info().Str("request_id", ev.ID).Str("session_id", req.SessionID).Msg("quote_email_requested")
	common.Data(w, http.StatusAccepted, map[string]any{"requestId": ev.ID, "status": "queued"})
}

type sessionView struct {
	ID    string          `json:"id"`
	Quote View            `json:"quote"`
	Steps selection.Steps `json:"steps"`
}

func (h *Handler) sessionView(id string, sel selection.Selection) sessionView {
	return sessionView{ID: id, Quote: h.Service.Price(sel), Steps: h.Service.Steps(sel)}
}

// CreateSession starts a session, optionally from a submitted form.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var in selection.Input
	if r.ContentLength != 0 && !decodeOptional(w, r, &in) {
		return
	}
	sel := h.Service.FromInput(in)
	id := session.NewID()
	if err := h.Sessions.Put(r.Context(), id, sel); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+id)
	common.Data(w, http.StatusCreated, h.sessionView(id, sel))
}

// GetSession returns the stored selection with freshly computed totals.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := session.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	sel, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.sessionView(id, sel))
}

type replaceRequest struct {
	Input *selection.Input `json:"input"`
	Steps selection.Steps  `json:"steps"`
}

// ReplaceSession overwrites a session from a form or from persisted wizard steps.
func (h *Handler) ReplaceSession(w http.ResponseWriter, r *http.Request) {
	id, err := session.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req replaceRequest
	if !decode(w, r, &req) {
		return
	}
	var sel selection.Selection
	switch {
	case req.Input != nil:
		sel = h.Service.FromInput(*req.Input)
	case len(req.Steps) > 0:
		sel = selection.FromSteps(req.Steps)
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "input or steps is required", nil)
		return
	}
	if err := h.Sessions.Put(r.Context(), id, sel); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.sessionView(id, sel))
}

// DeleteSession resets the wizard.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := session.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Sessions.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SwapBundle changes the session's bundle, keeping user choices.
func (h *Handler) SwapBundle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BundleID string `json:"bundleId"`
		Mode     string `json:"mode"`
	}
	h.update(w, r, &req, func(sel *selection.Selection) error {
		return h.Service.SwapBundle(sel, req.BundleID, req.Mode)
	})
}

// EditItems adds or removes user items.
func (h *Handler) EditItems(w http.ResponseWriter, r *http.Request) {
	var req ItemEdit
	h.update(w, r, &req, func(sel *selection.Selection) error {
		return h.Service.Edit(sel, req)
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, req any, fn func(*selection.Selection) error) {
	id, err := session.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !decode(w, r, req) {
		return
	}
	sel, err := h.Sessions.Update(r.Context(), id, fn)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.sessionView(id, sel))
}

// ShareSession issues a read-only link to the session's quote.
func (h *Handler) ShareSession(w http.ResponseWriter, r *http.Request) {
	if h.Share == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "sharing is not configured", nil)
		return
	}
	id, err := session.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.Sessions.Get(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	token, exp, err := h.Share.Sign(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string]any{
		"token":     token,
		"url":       strings.TrimRight(h.BaseURL, "/") + "/api/v1/shared/" + token,
		"expiresAt": exp.Format(time.RFC3339),
	})
}

// Shared renders the quote behind a share token.
func (h *Handler) Shared(w http.ResponseWriter, r *http.Request) {
	if h.Share == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "sharing is not configured", nil)
		return
	}
	id, err := h.Share.Verify(chi.URLParam(r, "token"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "share link is invalid or expired", nil)
		return
	}
	sel, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.Service.Price(sel))
}

func (h *Handler) loadSession(ctx context.Context, raw string) (selection.Selection, error) {
	id, err := session.ParseID(raw)
	if err != nil {
		return selection.Selection{}, err
	}
	return h.Sessions.Get(ctx, id)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidID):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid session id", nil)
	case errors.Is(err, session.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
	case errors.Is(err, ErrUnknownBundle), errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrUnknownItem):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, lock.ErrBusy):
		common.JSONError(w, http.StatusConflict, "SESSION_BUSY", "session is being edited elsewhere, retry shortly", nil)
	case errors.Is(err, context.DeadlineExceeded):
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "session is busy, retry shortly", nil)
	default:
		h.Logger.Error().Err(err).Msg("quote_request_failed")
		common.WriteError(w, err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	return true
}

func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
	return false
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
	}
	return out
}

func shortRef(sessionID string) string {
	id := strings.TrimSpace(sessionID)
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
