package aws

import (
	"context"
	"encoding/json"
	"log"

	"maidops/src/lib"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher fans booking events out to an SNS topic. The event name and
// booking code travel as message attributes so subscribers can filter.
type SNSPublisher struct {
	TopicArn string
	inner    snsAPI
}

func NewSNSPublisher(ctx context.Context, topicArn string) *SNSPublisher {
	client := lib.AWSGetSNSClient(ctx)
	if client == nil {
		return nil
	}
	return &SNSPublisher{TopicArn: topicArn, inner: client}
}

func (p *SNSPublisher) Publish(ctx context.Context, topic, key string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error processing payload: %s\n", err.Error())
		return err
	}
	_, err = p.inner.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.TopicArn),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"event":       {DataType: aws.String("String"), StringValue: aws.String(topic)},
			"bookingCode": {DataType: aws.String("String"), StringValue: aws.String(key)},
		},
	})
	if err != nil {
		log.Printf("[sns] Error publishing %s for %s: %s\n", topic, key, err.Error())
		return err
	}
	return nil
}
