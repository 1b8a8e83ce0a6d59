package quote_stay

// Request модель запроса на расчет проживания
type Request struct {
	Entry            string  // дата заезда "2025-03-10"
	Departure        string  // дата выезда "2025-03-13"
	NightlyRateCents *int64  // цена за ночь; если не задана - берется из объявления
	ListingID        *string // объявление из каталога
}

// Response расчет проживания
type Response struct {
	Entry            string `json:"entry"`
	Departure        string `json:"departure"`
	Nights           int    `json:"nights"`
	NightlyRateCents int64  `json:"nightlyRateCents"`
	TotalPriceCents  int64  `json:"totalPriceCents"`
}
