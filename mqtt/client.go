package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"robot-manager/config"
	"robot-manager/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// Client wraps the PAHO MQTT client and publishes robot lifecycle events.
type Client struct {
	client      mqtt.Client
	topicPrefix string
	logger      *slog.Logger
}

// NewClient creates and connects a new MQTT client.
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(1 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true)

	mqttClient := &Client{
		topicPrefix: strings.Trim(cfg.MQTTTopicPrefix, "/"),
		logger:      logger.With("component", "mqtt_client"),
	}

	opts.SetOnConnectHandler(mqttClient.onConnect)
	opts.SetConnectionLostHandler(mqttClient.onConnectionLost)
	client := mqtt.NewClient(opts)
	mqttClient.client = client

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return mqttClient, nil
}

// Disconnect gracefully disconnects the client.
func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
		c.logger.Info("MQTT Client disconnected")
	}
}

func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("Successfully connected to MQTT broker", "topic_prefix", c.topicPrefix)
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Error("Connection lost. Reconnecting...", slog.Any("error", err))
}

// PublishRobotEvent sends event to {prefix}/{robot_id}/{event}.
func (c *Client) PublishRobotEvent(ctx context.Context, event models.RobotEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal robot event: %w", err)
	}
	return c.publish(ctx, Topic(c.topicPrefix, event.RobotID, event.Event), payload)
}

func (c *Client) publish(ctx context.Context, topic string, payload []byte) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}

	token := c.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-time.After(publishTimeout):
		return fmt.Errorf("timed out publishing to %s", topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	c.logger.Debug("Published robot event", "topic", topic)
	return nil
}

// Topic builds the event topic for a robot.
func Topic(prefix string, robotID uint, event string) string {
	return fmt.Sprintf("%s/%d/%s", prefix, robotID, event)
}

// NoopPublisher drops every event; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishRobotEvent(context.Context, models.RobotEvent) error { return nil }
