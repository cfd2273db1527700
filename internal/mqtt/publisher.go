package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sunnysips/internal/sun"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
	}, nil
}

// PublishOutlook pushes per-field summaries plus the full outlook as a
// retained JSON payload under {prefix}/{venue}/.
func (p *Publisher) PublishOutlook(outlook *sun.Outlook) error {
	if !p.enabled {
		return nil
	}

	var sunnyMinutes int
	var nextWindowStart string
	for i, window := range outlook.Windows {
		sunnyMinutes += window.DurationMinutes
		if i == 0 {
			nextWindowStart = window.StartUTC.Format(time.RFC3339)
		}
	}

	var maxScore float64
	for _, point := range outlook.Hourly {
		if point.Score > maxScore {
			maxScore = point.Score
		}
	}

	topics := map[string]interface{}{
		"data_status":       string(outlook.DataStatus),
		"provider_used":     outlook.ProviderUsed,
		"fallback_used":     outlook.FallbackUsed,
		"sunny_minutes":     sunnyMinutes,
		"window_count":      len(outlook.Windows),
		"next_window_start": nextWindowStart,
		"max_score":         maxScore,
	}

	for name, value := range topics {
		topic := fmt.Sprintf("%s/%s/%s", p.topicPrefix, outlook.VenueID, name)
		payload := fmt.Sprintf("%v", value)
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	statusJSON, err := json.Marshal(outlook)
	if err != nil {
		return fmt.Errorf("failed to marshal outlook: %w", err)
	}

	statusTopic := fmt.Sprintf("%s/%s/status", p.topicPrefix, outlook.VenueID)
	token := p.client.Publish(statusTopic, 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish outlook: %w", token.Error())
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
