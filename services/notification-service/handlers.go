package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/pkg/response"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
)

var eventsConsumedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_events_total",
		Help: "Broker events consumed by routing key and result",
	},
	[]string{"routing_key", "result"},
)

type server struct {
	hub      *Hub
	timeline Timeline
	secret   []byte
}

func (s *server) routes() http.Handler {
	api := http.NewServeMux()
	api.Handle("GET /timeline/{reportId}", middleware.AuthMiddleware(s.secret)(http.HandlerFunc(s.reportTimeline)))
	api.HandleFunc("GET /health", s.health)
	api.Handle("GET /metrics", middleware.GetMetricsHandler())
	apiHandler := middleware.Chain(api,
		middleware.TraceMiddleware,
		middleware.MetricsMiddleware,
		middleware.LoggerMiddleware,
	)

	// SSE streams stay out of the request metrics; they would skew durations.
	root := http.NewServeMux()
	root.Handle("GET /notifications/subscribe", middleware.TraceMiddleware(http.HandlerFunc(s.subscribe)))
	root.Handle("/", apiHandler)
	return root
}

// handle records an event and fans it out. Timeline failures are logged and
// do not hold back the live notification.
func (s *server) handle(ctx context.Context, routingKey string, body []byte) error {
	n, entry, err := decodeEvent(routingKey, body)
	if err != nil {
		eventsConsumedTotal.WithLabelValues(routingKey, "invalid").Inc()
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.timeline.Append(wctx, entry); err != nil {
		log.WithError(err).WithField("report_id", entry.ReportID).Error("Failed to record timeline entry")
	}

	s.hub.Broadcast(n)
	eventsConsumedTotal.WithLabelValues(routingKey, "delivered").Inc()
	return nil
}

func (s *server) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				log.Warn("Broker channel closed, consumer stopping")
				return
			}
			if err := s.handle(ctx, d.RoutingKey, d.Body); err != nil {
				log.WithError(err).Warn("Failed to process event")
				continue
			}
			log.WithField("routing_key", d.RoutingKey).Info("Event processed")
		}
	}
}

func (s *server) subscribe(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		tokenString = middleware.BearerToken(r)
	}
	if tokenString == "" {
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := middleware.ParseToken(s.secret, tokenString)
	if err != nil {
		log.WithError(err).Warn("Invalid token attempt")
		http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := &Client{
		UserID: claims.UserID,
		Role:   claims.Role,
		Send:   make(chan Notification, 10),
	}
	if !s.hub.Register(client) {
		http.Error(w, "Service shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.Unregister(client)

	fmt.Fprintf(w, "data: %s\n\n", `{"type":"connected","message":"Connection established"}`)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case n, ok := <-client.Send:
			if !ok {
				return
			}
			data, _ := json.Marshal(n)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *server) reportTimeline(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("reportId")
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		response.Fail(w, http.StatusBadRequest, "invalid_argument", "Invalid report ID", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	entries, err := s.timeline.ForReport(ctx, id)
	if err != nil {
		middleware.LogError(middleware.GetTraceID(r), "Failed to load timeline", err)
		w.Header().Set("Retry-After", "1")
		response.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "Timeline temporarily unavailable", "")
		return
	}
	response.Success(w, http.StatusOK, "Timeline fetched successfully", entries)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":            "UP",
		"service":           "notification-service",
		"connected_clients": s.hub.Count(),
	})
}
