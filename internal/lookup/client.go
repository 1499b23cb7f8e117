package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PhoneValidator checks a number against the external validation API.
type PhoneValidator interface {
	Validate(ctx context.Context, phone, country string) (bool, error)
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type RestyValidator struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

func NewRestyValidator(baseURL, apiKey string, logger *zap.Logger) *RestyValidator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")

	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestyValidator{httpClient: client, apiKey: apiKey, logger: logger}
}

func (v *RestyValidator) Validate(ctx context.Context, phone, country string) (bool, error) {
	var out validateResponse
	resp, err := v.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apiKey":  v.apiKey,
			"phone":   phone,
			"country": country,
		}).
		SetResult(&out).
		Get("/validate")
	if err != nil {
		v.logger.Error("phone validation call failed", zap.Error(err))
		return false, fmt.Errorf("call phone validation api: %w", err)
	}
	if resp.IsError() {
		v.logger.Error("phone validation api returned error", zap.Int("status_code", resp.StatusCode()))
		return false, fmt.Errorf("phone validation api: status %d", resp.StatusCode())
	}
	return out.Valid, nil
}
