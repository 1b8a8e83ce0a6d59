package submit_amount

import "github.com/m04kA/SMC-AppointmentService/internal/api/handlers"

// AmountRequest HTTP request model
type AmountRequest struct {
	Amount handlers.RawAmount `json:"amount"` // копейки, число или строка
}
