package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registerAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinboard_register_attempts_total",
		Help: "Number of registration attempts grouped by status.",
	}, []string{"status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinboard_login_attempts_total",
		Help: "Number of login attempts grouped by status.",
	}, []string{"status"})

	logoutEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinboard_logout_events_total",
		Help: "Number of logout requests grouped by status.",
	}, []string{"status"})

	welcomeMail = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinboard_welcome_mail_total",
		Help: "Welcome mail delivery attempts grouped by outcome.",
	}, []string{"outcome"})
)

// IncRegister increments the registration counter.
func IncRegister(status string) {
	registerAttempts.WithLabelValues(status).Inc()
}

// IncLogin increments the login counter.
func IncLogin(status string) {
	loginAttempts.WithLabelValues(status).Inc()
}

// IncLogout increments the logout counter.
func IncLogout(status string) {
	logoutEvents.WithLabelValues(status).Inc()
}

// IncWelcomeMail increments the welcome mail counter.
func IncWelcomeMail(outcome string) {
	welcomeMail.WithLabelValues(outcome).Inc()
}
