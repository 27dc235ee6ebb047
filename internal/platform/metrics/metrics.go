// Package metrics holds the host's prometheus collectors. A nil *Recorder is valid
// and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "slate_host"

type Recorder struct {
	rpcRequests   *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	resolutions   *prometheus.CounterVec
	presented     prometheus.Gauge
	notifications *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC requests by method and result code (0 = success).",
		}, []string{"method", "code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_latency_seconds",
			Help:      "RPC handling latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_resolutions_total",
			Help:      "Editor implementations chosen by the resolution chain.",
		}, []string{"strategy"}),
		presented: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workspace_presented",
			Help:      "1 while a workspace is presented.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications posted to subscribers.",
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(r.rpcRequests, r.rpcLatency, r.resolutions, r.presented, r.notifications)
	}
	return r
}

func (r *Recorder) ObserveRPC(method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.rpcRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	r.rpcLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveResolution(strategy string) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(strategy).Inc()
}

func (r *Recorder) SetPresented(presented bool) {
	if r == nil {
		return
	}
	if presented {
		r.presented.Set(1)
		return
	}
	r.presented.Set(0)
}

func (r *Recorder) ObserveNotification(method string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(method).Inc()
}

// RPCRequests exposes the request counter for assertions in other packages.
func (r *Recorder) RPCRequests() *prometheus.CounterVec {
	if r == nil {
		return nil
	}
	return r.rpcRequests
}
