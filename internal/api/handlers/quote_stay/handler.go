package quote_stay

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	quoteStay "github.com/m04kA/SMC-AppointmentService/internal/usecase/quote_stay"
)

const (
	msgMissingDates    = "даты заезда и выезда обязательны"
	msgInvalidRate     = "некорректная цена за ночь"
	msgListingNotFound = "объявление не найдено"
)

type Handler struct {
	useCase QuoteStayUseCase
	logger  Logger
}

func NewHandler(useCase QuoteStayUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/stays/quote
// Query params: entry, departure (YYYY-MM-DD), nightlyRateCents или listingId
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := &quoteStay.Request{
		Entry:     q.Get("entry"),
		Departure: q.Get("departure"),
	}
	if req.Entry == "" || req.Departure == "" {
		handlers.RespondBadRequest(w, msgMissingDates)
		return
	}

	if raw := q.Get("nightlyRateCents"); raw != "" {
		rate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.logger.Warn("GET /stays/quote - Invalid nightly rate %q: %v", raw, err)
			handlers.RespondBadRequest(w, msgInvalidRate)
			return
		}
		req.NightlyRateCents = &rate
	}
	if raw := strings.TrimSpace(q.Get("listingId")); raw != "" {
		req.ListingID = &raw
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, quoteStay.ErrListingNotFound) {
			handlers.RespondNotFound(w, msgListingNotFound)
			return
		}
		if handlers.RespondDomainError(w, err) {
			h.logger.Warn("GET /stays/quote - Rejected: entry=%s, departure=%s, error=%v", req.Entry, req.Departure, err)
			return
		}
		h.logger.Error("GET /stays/quote - Failed: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
