package aws

import (
	"context"
	"log"
	"strings"
	"time"

	"maidops/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// MessageHandler processes one message body. Returning an error leaves the
// message on the queue for redelivery.
type MessageHandler func(ctx context.Context, body string) error

type SQSConsumer struct {
	Name    string
	handler MessageHandler
}

func NewSQSConsumer(queue string, handler MessageHandler) *SQSConsumer {
	return &SQSConsumer{
		Name:    queue,
		handler: handler,
	}
}

// Listen polls the queue in the background until ctx is cancelled.
func (s *SQSConsumer) Listen(ctx context.Context) {
	go func() {
		qname := s.Name
		client := lib.AWSGetSQSClient(ctx)
		if client == nil {
			return
		}
		qurl, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
			QueueName: aws.String(qname),
		})
		if err != nil {
			log.Printf("Failed to retrieve queue URL for %s: %s\n", qname, err.Error())
			return
		}
		log.Printf("%s: Listening for messages...", qname)
		for {
			output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            qurl.QueueUrl,
				WaitTimeSeconds:     20,
				MaxNumberOfMessages: 10,
			})
			if ctx.Err() != nil {
				log.Printf("[sqs] %s: consumer stopped\n", qname)
				return
			}
			if err != nil {
				log.Printf("[sqs] Error receiving messages: %s\n", err.Error())
				time.Sleep(5 * time.Second)
				continue
			}
			for _, m := range output.Messages {
				body := strings.Clone(aws.ToString(m.Body))
				if err := s.handler(ctx, body); err != nil {
					log.Printf("[sqs] %s: message %s left for redelivery: %s\n", qname, aws.ToString(m.MessageId), err.Error())
					continue
				}
				lib.SQSDeleteMessage(ctx, client, qurl.QueueUrl, &m)
			}
		}
	}()
}
