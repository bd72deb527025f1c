package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/smartcity/navigation/internal/domain"
)

var (
	// ErrMissingLocation is returned for emergency requests without coordinates
	ErrMissingLocation = errors.New("alert: location missing")
	// ErrInvalidLocation is returned for emergency requests with out of range coordinates
	ErrInvalidLocation = errors.New("alert: invalid location")
	// ErrAlertDelivery wraps webhook failures; the alert itself is already stored
	ErrAlertDelivery = errors.New("alert: delivery failed")
)

// voiceScript is read out by the voice gateway
var voiceScript = []string{
	"Emergency alert. Your family member may be in danger.",
	"Location has been sent to your WhatsApp.",
	"Please contact them immediately.",
}

// AlertService raises manual and automatic incident alerts
type AlertService struct {
	repo       DataRepository
	publisher  Publisher
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewAlertService creates an alert service. An empty webhookURL disables outbound delivery.
func NewAlertService(repo DataRepository, publisher Publisher, webhookURL string) *AlertService {
	return &AlertService{
		repo:       repo,
		publisher:  publisher,
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// EmergencyMessage is the text sent to the emergency contact
func EmergencyMessage(locationLink string) string {
	return "EMERGENCY ALERT\n\n" +
		"Your family member might be in trouble.\n\n" +
		"Live Location:\n" + locationLink + "\n\n" +
		"Please contact immediately."
}

// RaiseEmergency sends a user triggered alert
func (s *AlertService) RaiseEmergency(ctx context.Context, req domain.EmergencyRequest) (domain.IncidentAlert, error) {
	if req.Lat == nil || req.Lng == nil {
		return domain.IncidentAlert{}, ErrMissingLocation
	}
	loc := domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	if !loc.Valid() {
		return domain.IncidentAlert{}, ErrInvalidLocation
	}

	return s.raise(ctx, domain.IncidentAlert{
		SessionID: req.SessionID,
		Location:  loc,
	})
}

// ReportIncident sends an alert for a detected sudden stop
func (s *AlertService) ReportIncident(ctx context.Context, sessionID string, inc domain.Incident) (domain.IncidentAlert, error) {
	return s.raise(ctx, domain.IncidentAlert{
		SessionID:        sessionID,
		Location:         inc.Location,
		PreviousSpeedKmh: inc.PreviousSpeedKmh,
		CurrentSpeedKmh:  inc.CurrentSpeedKmh,
		Automatic:        true,
	})
}

// RecentAlerts returns alerts raised in the last window
func (s *AlertService) RecentAlerts(ctx context.Context, window time.Duration) ([]domain.IncidentAlert, error) {
	to := s.now()
	alerts, err := s.repo.GetRecentAlerts(ctx, to.Add(-window), to)
	if err != nil {
		return nil, fmt.Errorf("alert: failed to load alerts: %w", err)
	}
	return alerts, nil
}

func (s *AlertService) raise(ctx context.Context, alert domain.IncidentAlert) (domain.IncidentAlert, error) {
	alert.LocationLink = domain.LocationLink(alert.Location)
	alert.Message = EmergencyMessage(alert.LocationLink)
	alert.CreatedAt = s.now()

	id, err := s.repo.SaveIncidentAlert(ctx, alert)
	if err != nil {
		return domain.IncidentAlert{}, fmt.Errorf("alert: failed to store alert: %w", err)
	}
	alert.ID = id

	if alert.SessionID != "" && s.publisher != nil {
		msg := map[string]any{"type": "incident_alert", "alert": alert}
		if err := s.publisher.Publish(alert.SessionID, msg); err != nil {
			log.Printf("Failed to publish alert %d: %v", id, err)
		}
	}

	if err := s.deliver(ctx, alert); err != nil {
		return alert, err
	}

	log.Printf("Alert %d raised at %s (automatic=%t)", id, alert.LocationLink, alert.Automatic)
	return alert, nil
}

// webhookPayload carries both the messaging body and the voice call script
type webhookPayload struct {
	Alert       domain.IncidentAlert `json:"alert"`
	MessageBody string               `json:"message_body"`
	VoiceScript []string             `json:"voice_script"`
}

func (s *AlertService) deliver(ctx context.Context, alert domain.IncidentAlert) error {
	if s.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Alert:       alert,
		MessageBody: alert.Message,
		VoiceScript: voiceScript,
	})
	if err != nil {
		return fmt.Errorf("alert: failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("alert: failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAlertDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned status %d", ErrAlertDelivery, resp.StatusCode)
	}
	return nil
}
