package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/config"
	"github.com/mehmaan/mehmaan/internal/validation"
	"github.com/sirupsen/logrus"
)

// SMSIRGateway sends verification codes through the sms.ir template API.
type SMSIRGateway struct {
	cfg    *config.SMSConfig
	client *http.Client
	logger *logrus.Logger
}

func NewSMSIRGateway(cfg *config.SMSConfig, logger *logrus.Logger) *SMSIRGateway {
	return &SMSIRGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type templateParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sendRequest struct {
	Mobile     string              `json:"mobile"`
	TemplateID int                 `json:"templateId"`
	Parameters []templateParameter `json:"parameters"`
	LineNumber string              `json:"lineNumber,omitempty"`
}

type sendResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		MessageID int64 `json:"messageId"`
	} `json:"data"`
}

func (g *SMSIRGateway) Send(ctx context.Context, phoneNumber, code string) (string, error) {
	if err := g.validateSettings(); err != nil {
		g.logger.WithError(err).Error("SMS configuration error detected")
		return "", err
	}

	payload := sendRequest{
		Mobile:     phoneNumber,
		TemplateID: g.cfg.TemplateID,
		Parameters: []templateParameter{{Name: "CODE", Value: code}},
		LineNumber: g.cfg.LineNumber,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "failed to encode SMS payload", err)
	}

	url := g.cfg.BaseURL + "/send/verify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "failed to build SMS request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			g.logger.WithFields(logrus.Fields{
				"phone": validation.MaskPhone(phoneNumber),
				"url":   url,
			}).Error("SMS provider timeout occurred")
			return "", apperr.Wrap(apperr.KindTimeout, "SMS service timeout", err)
		}
		g.logger.WithFields(logrus.Fields{
			"phone": validation.MaskPhone(phoneNumber),
			"url":   url,
		}).WithError(err).Error("SMS provider connection error occurred")
		return "", apperr.Wrap(apperr.KindConnection, "SMS service connection error", err)
	}
	defer resp.Body.Close()

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperr.Wrap(apperr.KindProvider, "SMS provider returned an unreadable response", err)
	}

	if resp.StatusCode == http.StatusOK && result.Status == 1 {
		return strconv.FormatInt(result.Data.MessageID, 10), nil
	}

	providerMessage := result.Message
	if providerMessage == "" {
		providerMessage = "unknown provider error"
	}

	g.logger.WithFields(logrus.Fields{
		"phone":            validation.MaskPhone(phoneNumber),
		"status_code":      resp.StatusCode,
		"provider_message": providerMessage,
	}).Error("SMS provider returned an error")

	return "", apperr.New(apperr.KindProvider, fmt.Sprintf("SMS provider error: %s", providerMessage))
}

func (g *SMSIRGateway) validateSettings() error {
	if g.cfg.APIKey == "" {
		return apperr.New(apperr.KindConfiguration, "SMSIR_API_KEY is not configured")
	}
	if g.cfg.TemplateID <= 0 {
		return apperr.New(apperr.KindConfiguration, "SMSIR_TEMPLATE_ID is not configured")
	}
	if g.cfg.BaseURL == "" {
		return apperr.New(apperr.KindConfiguration, "SMSIR_BASE_URL is not configured")
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
