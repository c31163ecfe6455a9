package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// mqttClient is satisfied by *mqtt.Client from internal/common/mqtt.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	QoS() byte
}

// MQTTPublisher publishes to <prefix>/<patientId>/<event suffix>, e.g.
// wisefido/handover/p1/accepted, so pagers can subscribe per patient.
type MQTTPublisher struct {
	client mqttClient
	prefix string
}

func NewMQTTPublisher(client mqttClient, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

func (p *MQTTPublisher) topic(ev Event) string {
	return fmt.Sprintf("%s/%s/%s", p.prefix, ev.PatientID, strings.TrimPrefix(ev.Type, "handover."))
}

func (p *MQTTPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(p.topic(ev), p.client.QoS(), false, payload)
}
