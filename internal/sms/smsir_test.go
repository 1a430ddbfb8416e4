package sms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(baseURL string) *config.SMSConfig {
	return &config.SMSConfig{
		APIKey:     "test-key",
		TemplateID: 12345,
		LineNumber: "3000",
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
	}
}

func TestSend_success(t *testing.T) {
	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/verify", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":1,"message":"ok","data":{"messageId":987654}}`))
	}))
	defer server.Close()

	gateway := NewSMSIRGateway(testConfig(server.URL), testLogger())
	messageID, err := gateway.Send(context.Background(), "09123456789", "1234")
	require.NoError(t, err)
	assert.Equal(t, "987654", messageID)

	assert.Equal(t, "09123456789", captured.Mobile)
	assert.Equal(t, 12345, captured.TemplateID)
	assert.Equal(t, "3000", captured.LineNumber)
	require.Len(t, captured.Parameters, 1)
	assert.Equal(t, "CODE", captured.Parameters[0].Name)
	assert.Equal(t, "1234", captured.Parameters[0].Value)
}

func TestSend_providerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":0,"message":"invalid api key"}`))
	}))
	defer server.Close()

	gateway := NewSMSIRGateway(testConfig(server.URL), testLogger())
	_, err := gateway.Send(context.Background(), "09123456789", "1234")
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))
}

func TestSend_providerRejectsWithStatus200(t *testing.T) {
	// sms.ir signals some failures inside a 200 body.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0,"message":"not enough credit"}`))
	}))
	defer server.Close()

	gateway := NewSMSIRGateway(testConfig(server.URL), testLogger())
	_, err := gateway.Send(context.Background(), "09123456789", "1234")
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))
}

func TestSend_timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond

	gateway := NewSMSIRGateway(cfg, testLogger())
	_, err := gateway.Send(context.Background(), "09123456789", "1234")
	assert.Equal(t, apperr.KindTimeout, apperr.KindOf(err))
}

func TestSend_connectionError(t *testing.T) {
	// A server that is immediately closed leaves nothing listening.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gateway := NewSMSIRGateway(testConfig(url), testLogger())
	_, err := gateway.Send(context.Background(), "09123456789", "1234")
	assert.Equal(t, apperr.KindConnection, apperr.KindOf(err))
}

func TestSend_configurationErrors(t *testing.T) {
	cases := []func(*config.SMSConfig){
		func(c *config.SMSConfig) { c.APIKey = "" },
		func(c *config.SMSConfig) { c.TemplateID = 0 },
		func(c *config.SMSConfig) { c.BaseURL = "" },
	}
	for i, mutate := range cases {
		cfg := testConfig("https://api.sms.ir/v1")
		mutate(cfg)

		gateway := NewSMSIRGateway(cfg, testLogger())
		_, err := gateway.Send(context.Background(), "09123456789", "1234")
		assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err), "case %d", i)
	}
}

func TestSend_unreadableResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	gateway := NewSMSIRGateway(testConfig(server.URL), testLogger())
	_, err := gateway.Send(context.Background(), "09123456789", "1234")
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))
}
