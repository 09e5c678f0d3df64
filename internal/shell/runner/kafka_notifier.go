package runner

import (
	"context"
	"log"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/shell/messaging"
)

// KafkaSyncNotifier publishes sync completion events to Kafka.
type KafkaSyncNotifier struct {
	producer *messaging.KafkaProducer
}

func NewKafkaSyncNotifier(producer *messaging.KafkaProducer) *KafkaSyncNotifier {
	return &KafkaSyncNotifier{producer: producer}
}

func (n *KafkaSyncNotifier) SyncComplete(_ context.Context, run domain.SyncRun, errKind string) error {
	notification := messaging.NewSyncNotification(run, errKind)

	if err := n.producer.SendSyncNotification(notification); err != nil {
		log.Printf("Failed to send sync notification for run %s: %v", run.ID, err)
		return err
	}
	return nil
}
