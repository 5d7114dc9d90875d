// Package pixel sends server side conversion events and reads the pixel's
// automatic advanced matching (AAM) configuration.
package pixel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/s0up4200/metasync/graph"
)

// MaxEvents is the largest number of events accepted by one call
const MaxEvents = 1000

// EventsResponse is the response of an events call
type EventsResponse struct {
	graph.Envelope
	EventsReceived int      `json:"events_received"`
	Messages       []string `json:"messages"`
	FBTraceID      string   `json:"fbtrace_id"`
}

// EventsRequest sends events to a pixel. An empty testEventCode is omitted.
func EventsRequest(pixelID string, events []Event, partnerAgent, testEventCode string) *graph.Request {
	data := make([]map[string]any, 0, len(events))
	for _, event := range events {
		data = append(data, event.Payload())
	}

	body := map[string]any{
		"data":          data,
		"partner_agent": partnerAgent,
	}
	if testEventCode != "" {
		body["test_event_code"] = testEventCode
	}

	return graph.Post("/" + pixelID + "/events").
		WithData(body).
		WithRateLimit(graph.BucketPixel)
}

// Service sends pixel events
type Service struct {
	doer          graph.Doer
	pixelID       string
	partnerAgent  string
	testEventCode string
	logger        zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithPartnerAgent sets the partner_agent reported with events
func WithPartnerAgent(agent string) Option {
	return func(s *Service) {
		s.partnerAgent = agent
	}
}

// WithTestEventCode routes events to the Events Manager test tool
func WithTestEventCode(code string) Option {
	return func(s *Service) {
		s.testEventCode = code
	}
}

// NewService creates a pixel service
func NewService(doer graph.Doer, pixelID string, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if pixelID == "" {
		return nil, ErrNoPixel
	}

	s := &Service{
		doer:         doer,
		pixelID:      pixelID,
		partnerAgent: "metasync",
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send sends up to MaxEvents events
func (s *Service) Send(ctx context.Context, events ...Event) (*EventsResponse, error) {
	if len(events) == 0 {
		return &EventsResponse{}, nil
	}
	if len(events) > MaxEvents {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyEvents, len(events), MaxEvents)
	}

	var res EventsResponse
	req := EventsRequest(s.pixelID, events, s.partnerAgent, s.testEventCode)
	if err := s.doer.Do(ctx, req, &res); err != nil {
		return nil, fmt.Errorf("failed to send pixel events: %w", err)
	}

	s.logger.Debug().
		Int("sent", len(events)).
		Int("received", res.EventsReceived).
		Str("fbtrace_id", res.FBTraceID).
		Msg("Pixel events sent")
	return &res, nil
}
