package catalog

import "errors"

var (
	// ErrSubjectNotFound возвращается, когда услуга или объявление не найдены
	ErrSubjectNotFound = errors.New("catalog: subject not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("catalog client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("catalog client: invalid response")
)
