package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fabula_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	RefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fabula_token_refreshes_total",
		Help: "Refresh-token rotations by result.",
	}, []string{"result"})

	EvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fabula_session_evictions_total",
		Help: "Session wipes triggered by the per-user cap.",
	})

	LogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fabula_logouts_total",
		Help: "Logout and logout-all requests.",
	})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fabula_sessions_swept_total",
		Help: "Expired session rows removed by the sweeper.",
	})
)
