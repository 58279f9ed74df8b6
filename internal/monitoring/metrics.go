package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"campus-queue-backend/internal/models"
	"campus-queue-backend/internal/queue"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_commands_total",
			Help: "Queue commands processed, by command, department and outcome",
		},
		[]string{"command", "department", "outcome"},
	)

	waitingEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_waiting_entries",
			Help: "Current number of waiting entries per department",
		},
		[]string{"department"},
	)

	unassignedBacklog = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_unassigned_backlog",
			Help: "Waiting entries whose service no open window can pull",
		},
		[]string{"department"},
	)

	roomSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_room_subscribers",
			Help: "Connected realtime subscribers per room",
		},
		[]string{"room"},
	)
)

// Monitor samples queue depth and the unassigned backlog. The backlog
// gauge is the operational alert for services left without any open
// window; the router excludes them silently, so this is where a growing
// misconfiguration becomes visible.
type Monitor struct {
	router   *queue.Router
	interval time.Duration
}

func NewMonitor(router *queue.Router) *Monitor {
	m := &Monitor{router: router, interval: 30 * time.Second}
	go m.collect()
	return m
}

func (m *Monitor) collect() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for range ticker.C {
		for _, department := range models.Departments {
			waitingEntries.WithLabelValues(string(department)).Set(float64(m.router.WaitingCount(department)))
			unassignedBacklog.WithLabelValues(string(department)).Set(float64(m.router.UnassignedBacklog(department)))
		}
	}
}

// TrackCommand records one processed command and its outcome ("ok" or
// the rejection reason).
func TrackCommand(command string, department models.Department, outcome string) {
	commandsTotal.WithLabelValues(command, string(department), outcome).Inc()
}

// TrackRoom updates the subscriber gauge for one room.
func TrackRoom(room string, n int) {
	roomSubscribers.WithLabelValues(room).Set(float64(n))
}
