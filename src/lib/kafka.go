package lib

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(broker, clientId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers": broker,
		"client.id":         clientId,
		"acks":              "all",
	}
}

// KafkaPublisher sends JSON events keyed by booking code so every event of a
// booking lands on the same partition.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(broker, clientId string) (*KafkaPublisher, error) {
	cfg := GetKafkaProducerConfig(broker, clientId)
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return nil, err
	}
	go func() {
		for e := range p.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				log.Printf("[kafka] Delivery failed for %s: %s\n", string(m.Key), m.TopicPartition.Error.Error())
			}
		}
	}()
	return &KafkaPublisher{producer: p}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload map[string]any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error processing payload: %s\n", err.Error())
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
	}, nil)
	if err != nil {
		log.Printf("Error sending data to queue: %s\n", err.Error())
		return err
	}
	return nil
}

func (k *KafkaPublisher) Close() {
	k.producer.Flush(int((5 * time.Second).Milliseconds()))
	k.producer.Close()
}

func KafkaCreateTopics(broker string, topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": broker,
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     10,
			ReplicationFactor: 1,
		})
	}
	result, err := a.CreateTopics(context.Background(), topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
