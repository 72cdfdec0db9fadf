package main

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MqttLogWriter implementuje io.Writer a každý zápis (jeden JSON řádek slogu)
// publikuje do "logs/<služba>", kde ho sebere Log Collector.
type MqttLogWriter struct {
	client mqtt.Client
	topic  string
}

// NewMqttLogWriter vytvoří writer pro danou službu.
func NewMqttLogWriter(client mqtt.Client, serviceName string) *MqttLogWriter {
	return &MqttLogWriter{
		client: client,
		topic:  fmt.Sprintf("logs/%s", serviceName),
	}
}

// Write logování nikdy neblokuje: bez spojení s brokerem se zpráva zahodí,
// na token se nečeká (fire-and-forget). Stdout dostane řádek i tak, díky io.MultiWriter.
func (w *MqttLogWriter) Write(p []byte) (int, error) {
	if !w.client.IsConnectionOpen() {
		return len(p), nil
	}

	// slog buffer p po návratu znovu použije, payload musíme zkopírovat.
	payload := make([]byte, len(p))
	copy(payload, p)
	w.client.Publish(w.topic, 0, false, payload)

	return len(p), nil
}
