package invoice

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/logger"
	"github.com/dmitrymomot/invoicekit/pkg/response"
)

// Router returns the invoice routes. Mount it at /users/{userID}/invoices:
//
//	GET    /
//	POST   /
//	GET    /{invoiceID}
//	DELETE /{invoiceID}
//	PATCH  /{invoiceID}/status
func Router(svc Service, log *slog.Logger) chi.Router {
	if svc == nil {
		panic("invoice: service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	h := &handler{svc: svc, log: log.With(logger.Component("invoice_http"))}

	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{invoiceID}", h.get)
	r.Delete("/{invoiceID}", h.delete)
	r.Patch("/{invoiceID}/status", h.changeStatus)
	return r
}

type handler struct {
	svc Service
	log *slog.Logger
}

type createRequest struct {
	Number string `json:"number"`
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID", "invalid_user_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	invoices, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	response.OK(w, invoices)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID", "invalid_user_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createRequest
	if err := response.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	inv, err := h.svc.Create(r.Context(), userID, req.Number)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, "created", inv)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	userID, invoiceID, err := ids(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	inv, err := h.svc.Get(r.Context(), userID, invoiceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, inv)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, invoiceID, err := ids(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), userID, invoiceID); err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, map[string]uuid.UUID{"deleted": invoiceID})
}

func (h *handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	userID, invoiceID, err := ids(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := response.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	inv, err := h.svc.ChangeStatus(r.Context(), userID, invoiceID, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, inv)
}

func ids(r *http.Request) (userID, invoiceID uuid.UUID, err error) {
	if userID, err = uuidParam(r, "userID", "invalid_user_id"); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if invoiceID, err = uuidParam(r, "invoiceID", "invalid_invoice_id"); err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, invoiceID, nil
}

func uuidParam(r *http.Request, name, code string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, response.NewError(http.StatusBadRequest, code, errors.New(name+" must be a non-nil UUID"))
	}
	return id, nil
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *response.HTTPError
	switch {
	case errors.As(err, &httpErr):
	case errors.Is(err, ErrQuotaExceeded):
		err = response.NewError(http.StatusForbidden, "quota_exceeded", err)
	case errors.Is(err, ErrInvoiceNotFound):
		err = response.NewError(http.StatusNotFound, "invoice_not_found", err)
	case errors.Is(err, ErrInvoiceExists):
		err = response.NewError(http.StatusConflict, "invoice_exists", err)
	case errors.Is(err, ErrMissingNumber):
		err = response.NewError(http.StatusBadRequest, "missing_number", err)
	case errors.Is(err, ErrInvalidStatus):
		err = response.NewError(http.StatusBadRequest, "invalid_status", err)
	case errors.Is(err, ErrInvalidTransition):
		err = response.NewError(http.StatusUnprocessableEntity, "invalid_transition", err)
	case errors.Is(err, entitlement.ErrConcurrentUpdate):
		err = response.NewError(http.StatusConflict, "concurrent_update", err)
	default:
		h.log.ErrorContext(r.Context(), "invoice request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	response.Error(w, err)
}
