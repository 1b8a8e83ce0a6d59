package quote_stay

import "errors"

var (
	// ErrListingNotFound возвращается, когда объявление не найдено в каталоге
	ErrListingNotFound = errors.New("quote_stay: listing not found")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("quote_stay: internal error")
)
