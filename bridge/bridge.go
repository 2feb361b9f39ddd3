// Package bridge connects the service to its rooms over MQTT. A room is
// a topic under the configured prefix: reports are published to
// <prefix>/room/<room> and on-demand commands arrive on
// <prefix>/command/<room>, with the reply going back to the requesting
// room's topic.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/angas/spotprice-go/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	publishTimeout = 5 * time.Second
	commandBudget  = time.Minute
)

// Reporter produces the formatted report for one delivery date. It is
// satisfied by spot.Service.
type Reporter interface {
	Report(ctx context.Context, date string) (string, error)
}

type Bridge struct {
	logger     *slog.Logger
	mqttClient mqtt.Client
	store      *config.Store
	prefix     string
	reporter   Reporter
	// defaultDate supplies the date used when a command carries none,
	// the calendar date of the next announcement.
	defaultDate func() string
}

func New(cnfg config.AppConfigMqtt, store *config.Store, reporter Reporter, defaultDate func() string) *Bridge {
	logger := slog.Default().With("module", "bridge")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.Port))
	opts.SetClientID("spotprice")
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("bridge MQTT connected")
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("bridge MQTT connection lost", slog.Any("error", err))
	}

	mqttLog := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLog, slog.LevelWarn)

	return &Bridge{
		logger:      logger,
		mqttClient:  mqtt.NewClient(opts),
		store:       store,
		prefix:      cnfg.GetTopicPrefix(),
		reporter:    reporter,
		defaultDate: defaultDate,
	}
}

func (b *Bridge) Connect() error {
	b.logger.Debug("connecting bridge MQTT client")

	if token := b.mqttClient.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	topic := b.prefix + "/command/+"
	token := b.mqttClient.Subscribe(topic, 1, func(client mqtt.Client, msg mqtt.Message) {
		room := strings.TrimPrefix(msg.Topic(), b.prefix+"/command/")
		line := string(msg.Payload())
		// Command handling does its own network call, keep the paho
		// router goroutine free.
		go b.handleCommand(room, line)
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}

func (b *Bridge) Disconnect() {
	b.logger.Info("disconnecting bridge MQTT client")
	token := b.mqttClient.Unsubscribe(b.prefix + "/command/+")
	token.WaitTimeout(time.Second)
	if token.Error() != nil {
		b.logger.Error("error unsubscribing from command topic", slog.Any("error", token.Error()))
	}
	b.mqttClient.Disconnect(250)
}

// Send publishes a markdown report to one room's topic.
func (b *Bridge) Send(ctx context.Context, room string, text string) error {
	topic := fmt.Sprintf("%s/room/%s", b.prefix, room)
	token := b.mqttClient.Publish(topic, 1, false, text)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout publishing to %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}
