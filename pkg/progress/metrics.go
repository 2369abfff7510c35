package progress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	listenerJob   = "job"
	listenerBatch = "batch"

	reasonNotAddressed        = "not_addressed"
	reasonMalformedBody       = "malformed_body"
	reasonMalformedDest       = "malformed_destination"
	reasonUntracked           = "untracked"
	reasonUnrecognisedPayload = "unrecognised_payload"
)

var framesHandled = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ltc_progress_frames_handled_total",
		Help: "Frames accepted by progress listeners",
	},
	[]string{"listener"},
)

var framesDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ltc_progress_frames_dropped_total",
		Help: "Frames ignored by progress listeners, by reason",
	},
	[]string{"listener", "reason"},
)

func dropped(listener, reason string, frame *Frame, err error) {
	framesDropped.WithLabelValues(listener, reason).Inc()
	entry := log.WithFields(log.Fields{
		"listener":    listener,
		"reason":      reason,
		"destination": frame.Destination(),
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("Ignoring frame")
}
