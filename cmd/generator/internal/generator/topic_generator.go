package generator

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	tickPartitions   = 4
	topicReadyPolls  = 5
	topicReadyPeriod = 200 * time.Millisecond
)

var ErrTopicNotReady = errors.New("topic has no partitions yet")

// KafkaConn is the admin surface of *kafka.Conn used to create the topic.
type KafkaConn interface {
	Controller() (kafka.Broker, error)
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

var _ KafkaConn = (*kafka.Conn)(nil)

type KafkaDialer interface {
	DialContext(ctx context.Context, network, address string) (KafkaConn, error)
}

type kafkaDialer struct{ d *kafka.Dialer }

// NewKafkaDialer wraps d so its connections satisfy KafkaConn.
func NewKafkaDialer(d *kafka.Dialer) KafkaDialer { return kafkaDialer{d: d} }

func (k kafkaDialer) DialContext(ctx context.Context, network, address string) (KafkaConn, error) {
	conn, err := k.d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// TopicCreator makes sure the tick topic exists before the feed publishes.
type TopicCreator struct {
	logger *zap.Logger
	dialer KafkaDialer
	clock  Clock
}

func NewTopicCreator(logger *zap.Logger, dialer KafkaDialer, clock Clock) *TopicCreator {
	return &TopicCreator{
		logger: logger,
		dialer: dialer,
		clock:  clock,
	}
}

// Create asks the controller for the topic and waits for its partitions.
// An "already exists" answer from the controller is not an error.
func (tc *TopicCreator) Create(ctx context.Context, brokers []string, topicName string) error {
	var conn KafkaConn
	err := errors.New("no brokers configured")

	for _, addr := range brokers {
		conn, err = tc.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
		tc.logger.Debug("Broker dial failed", zap.String("broker", addr), zap.Error(err))
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := tc.dialer.DialContext(ctx, "tcp", controllerAddr)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     tickPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		tc.logger.Info("Topic creation finished (might already exist)", zap.Error(err))
	} else {
		tc.logger.Info("Topic creation request sent", zap.String("topic", topicName))
	}

	return tc.waitForTopic(ctx, conn, topicName)
}

func (tc *TopicCreator) waitForTopic(ctx context.Context, conn KafkaConn, topicName string) error {
	tc.logger.Info("Waiting for topic initialization...", zap.String("topic", topicName))
	for i := 0; i < topicReadyPolls; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tc.clock.Sleep(topicReadyPeriod)
		partitions, err := conn.ReadPartitions(topicName)
		if err == nil && len(partitions) > 0 {
			tc.logger.Info("Topic is ready!", zap.Int("partitions", len(partitions)))
			return nil
		}
	}
	return ErrTopicNotReady
}
