package main

import (
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// EventSink přijímá to, co přichází z MQTT. Implementuje ho Dashboard.
type EventSink interface {
	HandleEvent(ev SensorEvent)
	ConnectionLost(err error)
	ConnectionRestored()
}

// Feed napojuje živá data z brokeru (výstup Ingestoru) na dashboard.
type Feed struct {
	topic  string
	logger *slog.Logger

	// sink se nastaví až po vytvoření dashboardu; logger přitom už MQTT klienta potřebuje.
	sink EventSink
}

// NewMQTTClient připraví klienta s handlery feedu. Nepřipojuje se, to udělá Connect.
// Automatické znovupřipojení je zapnuté: výpadek brokeru dashboard přežije, jen hlásí upozornění.
func NewMQTTClient(cfg Config, feed *Feed) mqtt.Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	opts.SetOnConnectHandler(feed.onConnect)
	opts.SetConnectionLostHandler(feed.onConnectionLost)

	return mqtt.NewClient(opts)
}

// NewFeed - konstruktor
func NewFeed(topic string, logger *slog.Logger) *Feed {
	return &Feed{topic: topic, logger: logger}
}

// Attach připojí dashboard. Volá se před Connect.
func (f *Feed) Attach(sink EventSink) {
	f.sink = sink
}

// onConnect se volá po každém (i opětovném) připojení. Subscribe musíme obnovit,
// session u brokeru je "clean" a po výpadku odběry nepamatuje.
func (f *Feed) onConnect(client mqtt.Client) {
	f.logger.Info("Připojeno k MQTT brokeru", "topic", f.topic)

	token := client.Subscribe(f.topic, 0, f.onMessage)
	if token.Wait() && token.Error() != nil {
		f.logger.Error("Odběr MQTT topicu selhal", "topic", f.topic, "error", token.Error())
		return
	}
	if f.sink != nil {
		f.sink.ConnectionRestored()
	}
}

func (f *Feed) onConnectionLost(_ mqtt.Client, err error) {
	if f.sink != nil {
		f.sink.ConnectionLost(err)
	}
}

// onMessage parsuje událost Ingestoru. Poškozená zpráva se zaloguje a zahodí.
func (f *Feed) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var ev SensorEvent
	if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
		f.logger.Warn("Nečitelná událost z MQTT", "topic", msg.Topic(), "error", err)
		return
	}
	if f.sink != nil {
		f.sink.HandleEvent(ev)
	}
}
