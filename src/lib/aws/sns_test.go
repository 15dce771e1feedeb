package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestSNSPublisherPublish(t *testing.T) {
	fake := &fakeSNS{}
	p := &SNSPublisher{TopicArn: "arn:aws:sns:ap-southeast-1:000000000000:BookingStatus", inner: fake}

	err := p.Publish(context.Background(), "booking-status-changed", "HM-250610-ABCDEF", map[string]any{
		"bookingId": 7,
		"to":        "completed",
	})
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, p.TopicArn, aws.ToString(in.TopicArn))
	assert.Equal(t, "completed", gjson.Get(aws.ToString(in.Message), "to").String())
	assert.Equal(t, "booking-status-changed", aws.ToString(in.MessageAttributes["event"].StringValue))
	assert.Equal(t, "HM-250610-ABCDEF", aws.ToString(in.MessageAttributes["bookingCode"].StringValue))
}

func TestSNSPublisherError(t *testing.T) {
	p := &SNSPublisher{TopicArn: "arn", inner: &fakeSNS{err: errors.New("throttled")}}
	assert.Error(t, p.Publish(context.Background(), "e", "k", map[string]any{}))
}
