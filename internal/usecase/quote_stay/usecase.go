package quote_stay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	catalogClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/catalog"
	"github.com/m04kA/SMC-AppointmentService/internal/scheduling"
)

// UseCase use case для расчета стоимости проживания
type UseCase struct {
	catalogClient CatalogClient
	location      *time.Location
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(catalogClient CatalogClient, loc *time.Location, logger Logger) *UseCase {
	return &UseCase{
		catalogClient: catalogClient,
		location:      loc,
		logger:        logger,
	}
}

// Execute считает количество ночей и итоговую стоимость
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("QuoteStay: entry=%s, departure=%s", req.Entry, req.Departure)

	// 1. Разбираем и валидируем даты
	stay, err := scheduling.ParseStay(req.Entry, req.Departure, uc.location)
	if err != nil {
		uc.logger.Warn("QuoteStay: invalid stay: %v", err)
		return nil, err
	}

	// 2. Определяем цену за ночь
	rate, err := uc.nightlyRate(ctx, req)
	if err != nil {
		return nil, err
	}

	total := stay.TotalPrice(rate)
	uc.logger.Info("QuoteStay: %d nights x %d = %d", stay.Nights, rate, total)

	return &Response{
		Entry:            stay.Entry.Format(domain.DateFormat),
		Departure:        stay.Departure.Format(domain.DateFormat),
		Nights:           stay.Nights,
		NightlyRateCents: rate,
		TotalPriceCents:  total,
	}, nil
}

func (uc *UseCase) nightlyRate(ctx context.Context, req *Request) (int64, error) {
	if req.NightlyRateCents != nil {
		if *req.NightlyRateCents < 0 {
			return 0, fmt.Errorf("%w: nightlyRateCents must not be negative", domain.ErrInvalidInput)
		}
		return *req.NightlyRateCents, nil
	}

	if req.ListingID == nil || strings.TrimSpace(*req.ListingID) == "" {
		return 0, fmt.Errorf("%w: nightlyRateCents or listingId is required", domain.ErrInvalidInput)
	}

	listing, err := uc.catalogClient.GetSubject(ctx, domain.SubjectListing, *req.ListingID)
	if err != nil {
		if errors.Is(err, catalogClient.ErrSubjectNotFound) {
			uc.logger.Warn("QuoteStay: listing %s not found", *req.ListingID)
			return 0, ErrListingNotFound
		}
		uc.logger.Error("QuoteStay: failed to get listing %s: %v", *req.ListingID, err)
		return 0, fmt.Errorf("%w: failed to get listing: %v", ErrInternal, err)
	}
	return listing.PriceCents, nil
}
