package telemetry

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

const DefaultQueue = 256

// Message is an outgoing MQTT message.
type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Publisher is the part of mqtt.Client the sender uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Sender struct {
	topic   string
	every   int
	ticks   int
	out     chan Message
	sent    atomic.Int64
	dropped atomic.Int64
}

// NewSender publishes to topic one tick in every and every non-tick event.
// queue bounds the number of messages waiting for the broker.
func NewSender(topic string, every, queue int) *Sender {
	if every < 1 {
		every = 1
	}
	if queue < 1 {
		queue = DefaultQueue
	}
	return &Sender{
		topic: topic,
		every: every,
		out:   make(chan Message, queue),
	}
}

// Observe is a session.Observer. It never blocks and must be called from a
// single goroutine.
func (s *Sender) Observe(e session.Event, st control.State) {
	if _, ok := e.(session.Tick); ok {
		s.ticks++
		if s.ticks%s.every != 0 {
			return
		}
	}

	data, err := PayloadOf(e, st).Encode()
	if err != nil {
		log.Printf("telemetry: encode %s: %v\n", e.Kind(), err)
		return
	}

	select {
	case s.out <- Message{Topic: s.topic, Payload: data}:
	default:
		s.dropped.Add(1)
	}
}

// Run publishes queued messages until ctx is done.
func (s *Sender) Run(ctx context.Context, client Publisher) {
	log.Println("telemetry sender started")

	for {
		select {
		case msg := <-s.out:
			token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
			token.Wait()
			if token.Error() != nil {
				log.Printf("telemetry: publish to %s: %v\n", msg.Topic, token.Error())
				continue
			}
			s.sent.Add(1)

		case <-ctx.Done():
			log.Printf("telemetry sender stopped (sent %d, dropped %d)\n", s.Sent(), s.Dropped())
			return
		}
	}
}

func (s *Sender) Sent() int64 { return s.sent.Load() }

func (s *Sender) Dropped() int64 { return s.dropped.Load() }

// BrokerURL accepts host, host:port or a full URL and defaults to tcp on
// port 1883.
func BrokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	if !strings.Contains(broker, ":") {
		broker += ":1883"
	}
	return "tcp://" + broker
}

// connectTimeout bounds the initial dial.
var connectTimeout = 10 * time.Second

func clientOptions(broker, clientID string) *mqtt.ClientOptions {
	url := BrokerURL(broker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(url)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v\n", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("Connected to MQTT broker at %s\n", url)
	})
	return opts
}

// Connect dials the broker, retrying until connectTimeout, and keeps
// reconnecting in the background once connected. A client that never
// connected is shut down before the error is returned.
func Connect(broker, clientID string) (mqtt.Client, error) {
	url := BrokerURL(broker)
	client := mqtt.NewClient(clientOptions(broker, clientID))

	log.Printf("Connecting to MQTT broker at %s...\n", url)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect %s: timed out", url)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	return client, nil
}
