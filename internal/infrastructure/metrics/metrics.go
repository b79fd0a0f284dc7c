package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the game-facing collectors. Register once in main
// and thread through the engine and store.
type Metrics struct {
	RoomsActive      prometheus.Gauge
	PlayersConnected prometheus.Gauge
	RoundsPlayed     prometheus.Counter
	MatchesFinished  prometheus.Counter
	Submissions      *prometheus.CounterVec
	Reconnects       prometheus.Counter
	RoomsReaped      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "mimic",
			Name:      "rooms_active",
			Help:      "Rooms currently held in the store.",
		}),
		PlayersConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "mimic",
			Name:      "players_connected",
			Help:      "Players with a live connection bound to a seat.",
		}),
		RoundsPlayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mimic",
			Name:      "rounds_played_total",
			Help:      "Rounds that reached a result.",
		}),
		MatchesFinished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mimic",
			Name:      "matches_finished_total",
			Help:      "Matches that reached a winner or solo elimination.",
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mimic",
			Name:      "submissions_total",
			Help:      "Judged submissions by verdict.",
		}, []string{"verdict"}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mimic",
			Name:      "reconnects_total",
			Help:      "Successful silent reconnections within the grace window.",
		}),
		RoomsReaped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mimic",
			Name:      "rooms_reaped_total",
			Help:      "Dead rooms removed by the cleanup scan.",
		}),
	}
}
