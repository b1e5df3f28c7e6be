package notify

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// mqttConnectTimeout bounds the initial broker connection.
const mqttConnectTimeout = 10 * time.Second

// mqttPublishTimeout bounds a single publish.
const mqttPublishTimeout = 5 * time.Second

// MQTTPublisher publishes lamp events to an MQTT topic.
type MQTTPublisher struct {
	client paho.Client
	topic  string
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(broker, topic, clientID, username, password string) (*MQTTPublisher, error) {
	if clientID == "" {
		clientID = "disco-monitor"
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if username != "" {
		opts.SetUsername(username).SetPassword(password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTPublisher{client: client, topic: topic}, nil
}

// mqttPayload is the JSON message published for every lamp event.
type mqttPayload struct {
	Lamp mqttLampPayload `json:"lamp"`
}

type mqttLampPayload struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Level     float64 `json:"level"`
	Threshold float64 `json:"threshold"`
	SilenceMs int64   `json:"silence_ms,omitempty"`
}

// PublishLamp sends one lamp event to the broker. QoS 0; a lost
// message is acceptable, the next transition supersedes it anyway.
func (p *MQTTPublisher) PublishLamp(event string, level, threshold float64, silence time.Duration) error {
	payload, err := json.Marshal(mqttPayload{
		Lamp: mqttLampPayload{
			Timestamp: timestampUTC(),
			Event:     event,
			Level:     level,
			Threshold: threshold,
			SilenceMs: silence.Milliseconds(),
		},
	})
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(1000)
}
