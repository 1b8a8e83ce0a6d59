package list_appointments

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// ToServiceRequest создает запрос сервиса из query параметров
// from и to принимают YYYY-MM-DD или RFC3339, status можно передать несколько раз или через запятую
func ToServiceRequest(q url.Values) (*models.ListRequest, error) {
	req := &models.ListRequest{
		OwnerID:   optional(q.Get("ownerId")),
		ClientID:  optional(q.Get("clientId")),
		SubjectID: optional(q.Get("subjectId")),
	}

	var err error
	if req.From, err = parseBound(q.Get("from")); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if req.To, err = parseBound(q.Get("to")); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}

	for _, raw := range q["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.Statuses = append(req.Statuses, s)
			}
		}
	}

	if raw := q.Get("includeInactive"); raw != "" {
		if req.IncludeInactive, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("includeInactive: %w", err)
		}
	}

	return req, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func parseBound(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(domain.DateFormat, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
