package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PostsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "inkfeed", Name: "posts_created_total", Help: "Number of posts created."},
	)
	FeedPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkfeed", Name: "feed_pages_total", Help: "Number of feed pages served, by kind (first|more)."},
		[]string{"kind"},
	)
	FanoutUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkfeed", Name: "fanout_updates_total", Help: "Number of per-post author-name updates, by result."},
		[]string{"result"},
	)
	UploadsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkfeed", Name: "uploads_rejected_total", Help: "Number of image uploads rejected before any network call, by reason."},
		[]string{"reason"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkfeed", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkfeed", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(PostsCreated)
	reg.MustRegister(FeedPages)
	reg.MustRegister(FanoutUpdates)
	reg.MustRegister(UploadsRejected)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
