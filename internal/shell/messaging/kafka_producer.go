package messaging

import (
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// KafkaProducer publishes sync lifecycle events.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	log.Printf("[DEBUG] KafkaProducer - initializing with brokers: %v, topic: %s", brokers, topic)

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
	}, nil
}

// SendSyncNotification publishes one sync event keyed by dataset so
// events for a dataset stay ordered within a partition.
func (k *KafkaProducer) SendSyncNotification(notification *SyncNotificationMessage) error {
	value, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(notification.DatasetID),
		Value:     sarama.ByteEncoder(value),
		Timestamp: time.Now(),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(notification.EventType)},
		},
	}

	partition, offset, err := k.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	log.Printf("[DEBUG] KafkaProducer - notification sent to partition %d at offset %d", partition, offset)
	return nil
}

func (k *KafkaProducer) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
