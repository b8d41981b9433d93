package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/perfumichi/storefront/pkg/config"
	"github.com/perfumichi/storefront/pkg/logger"
	"github.com/perfumichi/storefront/pkg/metrics"
)

const dispatchChannel = "email"

// AuthEmailInput describes an authentication event worth notifying about.
type AuthEmailInput struct {
	Name       string
	Email      string
	Action     string
	AuthMethod string
}

// Service sends transactional emails. Sends are best-effort: callers log
// failures and never block their primary flow on them.
type Service interface {
	SendAuthEmail(ctx context.Context, input AuthEmailInput) error
}

type service struct {
	client   *http.Client
	cfg      config.EmailConfig
	logg     *logger.Logger
	dispatch *metrics.DispatchMetrics
}

// NewService builds the email sender. dispatch may be nil.
func NewService(cfg config.EmailConfig, logg *logger.Logger, dispatch *metrics.DispatchMetrics) (Service, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("email endpoint required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &service{
		client:   &http.Client{Timeout: timeout},
		cfg:      cfg,
		logg:     logg,
		dispatch: dispatch,
	}, nil
}

type emailRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams map[string]any `json:"template_params"`
}

// SendAuthEmail delivers the admin copy and the user copy of the auth event.
// Both templates are attempted even when one fails; the combined error is
// returned for logging.
func (s *service) SendAuthEmail(ctx context.Context, input AuthEmailInput) error {
	start := time.Now()

	adminErr := s.sendTemplate(ctx, s.cfg.AdminTemplateID, map[string]any{
		"to_email":    s.cfg.AdminAddress,
		"user_name":   input.Name,
		"user_email":  input.Email,
		"action":      input.Action,
		"auth_method": input.AuthMethod,
	})
	userErr := s.sendTemplate(ctx, s.cfg.UserTemplateID, map[string]any{
		"to_email":  input.Email,
		"user_name": input.Name,
		"action":    input.Action,
	})

	s.dispatch.ObserveDuration(dispatchChannel, time.Since(start))
	if adminErr != nil || userErr != nil {
		s.dispatch.IncFailure(dispatchChannel)
		if adminErr != nil && userErr != nil {
			return fmt.Errorf("admin email: %v; user email: %w", adminErr, userErr)
		}
		if adminErr != nil {
			return fmt.Errorf("admin email: %w", adminErr)
		}
		return fmt.Errorf("user email: %w", userErr)
	}
	s.dispatch.IncSuccess(dispatchChannel)
	return nil
}

func (s *service) sendTemplate(ctx context.Context, templateID string, params map[string]any) error {
	if templateID == "" {
		return fmt.Errorf("template id required")
	}
	payload, err := json.Marshal(emailRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     templateID,
		UserID:         s.cfg.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("encoding email payload: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxRetries), retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("email endpoint returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("email endpoint returned %d", resp.StatusCode)
		}
		return nil
	})
}
