// Package metrics регистрирует счетчики Prometheus, общие для всего сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EmergenciesReported - количество успешно зарегистрированных случаев
	EmergenciesReported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emergencies_reported_total",
		Help: "Total number of successfully reported emergencies.",
	})

	// StatusTransitions - количество успешных переходов статусов по целевому статусу
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emergency_status_transitions_total",
		Help: "Total number of committed status transitions by target status.",
	}, []string{"status"})

	// WSConnections - текущее число открытых WebSocket-соединений
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Number of currently open WebSocket connections.",
	})

	// WSEventsPublished - количество событий, разосланных по комнатам
	WSEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_events_published_total",
		Help: "Total number of events published to rooms by event name.",
	}, []string{"event"})
)
