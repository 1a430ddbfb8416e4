package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	OTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_otp_requests_total",
		Help: "OTP send requests by outcome.",
	}, []string{"result"})

	OTPVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_otp_verifications_total",
		Help: "OTP verification attempts by outcome.",
	}, []string{"result"})
)
