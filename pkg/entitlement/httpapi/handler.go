// Package httpapi exposes entitlement reads, slot checks and tier changes
// over HTTP. Quota commits and releases are not exposed: they must run in
// the same unit of work as the invoice write.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/logger"
	"github.com/dmitrymomot/invoicekit/pkg/response"
)

type handler struct {
	svc entitlement.Service
	log *slog.Logger
}

// Router returns the entitlement routes:
//
//	GET  /tiers
//	GET  /tiers/compare?from=free&to=premium
//	GET  /users/{userID}/tier
//	GET  /users/{userID}/usage
//	GET  /users/{userID}/features/{feature}
//	POST /users/{userID}/slots
//	PUT  /users/{userID}/subscription
func Router(svc entitlement.Service, log *slog.Logger) chi.Router {
	if svc == nil {
		panic("httpapi: entitlement service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	h := &handler{svc: svc, log: log.With(logger.Component("entitlement_http"))}

	r := chi.NewRouter()
	r.Get("/tiers", h.listTiers)
	r.Get("/tiers/compare", h.compareTiers)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/tier", h.effectiveTier)
		r.Get("/usage", h.usage)
		r.Get("/features/{feature}", h.feature)
		r.Post("/slots", h.requestSlot)
		r.Put("/subscription", h.changeTier)
	})
	return r
}

type tierView struct {
	Tier     entitlement.Tier `json:"tier"`
	Features featuresView     `json:"features"`
}

// featuresView uses the catalog's feature keys as JSON names.
type featuresView struct {
	InvoiceLimit       int64                       `json:"invoiceLimit"`
	PeriodLengthDays   int                         `json:"periodLengthDays"`
	TemplateCount      int64                       `json:"templateCount"`
	HistoryLimit       int64                       `json:"historyLimit"`
	HistoryKind        entitlement.HistoryKind     `json:"historyKind"`
	HasLogo            bool                        `json:"hasLogo"`
	HasSignature       bool                        `json:"hasSignature"`
	HasCustomColors    bool                        `json:"hasCustomColors"`
	HasDashboardTotals bool                        `json:"hasDashboardTotals"`
	HasMonthlyReport   bool                        `json:"hasMonthlyReport"`
	ExportQualities    []entitlement.ExportQuality `json:"exportQualities"`
}

func newFeaturesView(f entitlement.TierFeatures) featuresView {
	return featuresView{
		InvoiceLimit:       f.InvoiceLimit,
		PeriodLengthDays:   f.PeriodLengthDays,
		TemplateCount:      f.TemplateCount,
		HistoryLimit:       f.HistoryLimit,
		HistoryKind:        f.HistoryKind,
		HasLogo:            f.HasLogo,
		HasSignature:       f.HasSignature,
		HasCustomColors:    f.HasCustomColors,
		HasDashboardTotals: f.HasDashboardTotals,
		HasMonthlyReport:   f.HasMonthlyReport,
		ExportQualities:    f.ExportQualities.List(),
	}
}

func (h *handler) listTiers(w http.ResponseWriter, r *http.Request) {
	tiers := entitlement.Tiers()
	views := make([]tierView, 0, len(tiers))
	for _, t := range tiers {
		views = append(views, tierView{Tier: t, Features: newFeaturesView(entitlement.FeaturesOf(t))})
	}
	response.OK(w, views)
}

func (h *handler) compareTiers(w http.ResponseWriter, r *http.Request) {
	from, err := parseTier(r.URL.Query().Get("from"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := parseTier(r.URL.Query().Get("to"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, entitlement.CompareTiers(from, to))
}

func (h *handler) effectiveTier(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tier, err := h.svc.GetEffectiveTier(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, map[string]entitlement.Tier{"effective_tier": tier})
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	usage, err := h.svc.GetUsage(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, usage)
}

func (h *handler) feature(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	feature := entitlement.Feature(chi.URLParam(r, "feature"))
	ok, err := h.svc.HasFeature(r.Context(), userID, feature)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, map[string]any{"feature": feature, "enabled": ok})
}

func (h *handler) requestSlot(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slot, err := h.svc.RequestCreationSlot(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, slot)
}

type changeTierRequest struct {
	Tier                string     `json:"tier"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date"`
}

func (h *handler) changeTier(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req changeTierRequest
	if err := response.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	tier, err := parseTier(req.Tier)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sub, err := h.svc.ChangeTier(r.Context(), userID, tier, req.SubscriptionEndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, subscriptionView{
		UserID:              sub.UserID,
		Tier:                sub.Tier,
		SubscriptionEndDate: sub.SubscriptionEndDate,
		CycleStart:          sub.BillingCycleStart,
		CycleEnd:            sub.BillingCycleEnd,
		Count:               sub.CurrentPeriodCount,
	})
}

type subscriptionView struct {
	UserID              uuid.UUID        `json:"user_id"`
	Tier                entitlement.Tier `json:"tier"`
	SubscriptionEndDate *time.Time       `json:"subscription_end_date,omitempty"`
	CycleStart          time.Time        `json:"cycle_start"`
	CycleEnd            time.Time        `json:"cycle_end"`
	Count               int64            `json:"count"`
}

func userIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, response.NewError(http.StatusBadRequest, "invalid_user_id", errors.New("user ID must be a non-nil UUID"))
	}
	return id, nil
}

func parseTier(s string) (entitlement.Tier, error) {
	t, err := entitlement.ParseTier(s)
	if err != nil {
		return "", response.NewError(http.StatusBadRequest, "invalid_tier", err)
	}
	return t, nil
}

// fail maps domain errors to HTTP errors and writes them.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *response.HTTPError
	switch {
	case errors.As(err, &httpErr):
	case errors.Is(err, entitlement.ErrInvalidFeatureKey):
		err = response.NewError(http.StatusNotFound, "unknown_feature", err)
	case errors.Is(err, entitlement.ErrInvalidTier):
		err = response.NewError(http.StatusBadRequest, "invalid_tier", err)
	case errors.Is(err, entitlement.ErrMissingEndDate):
		err = response.NewError(http.StatusBadRequest, "missing_end_date", err)
	case errors.Is(err, entitlement.ErrConcurrentUpdate):
		err = response.NewError(http.StatusConflict, "concurrent_update", err)
	default:
		h.log.ErrorContext(r.Context(), "entitlement request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	response.Error(w, err)
}
