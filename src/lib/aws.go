package lib

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// awsGetSdkConfig loads the default chain and, when AWS_IAM_ROLE_ARN is set,
// swaps in the credentials of the assumed role.
func awsGetSdkConfig(ctx context.Context) (*aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return nil, err
	}
	iamRole := os.Getenv("AWS_IAM_ROLE_ARN")
	if iamRole == "" {
		return &cfg, nil
	}
	stsClient := sts.NewFromConfig(cfg)
	output, err := stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(iamRole),
		RoleSessionName: aws.String("maidops-api"),
	})
	if err != nil {
		log.Printf("Error configuring STS client: %s\n", err.Error())
		return nil, err
	}
	creds := output.Credentials
	cfg, err = config.LoadDefaultConfig(ctx, config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(*creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken),
	))
	if err != nil {
		log.Printf("Error configuration: %s\n", err.Error())
		return nil, err
	}
	return &cfg, nil
}

func AWSGetSQSClient(ctx context.Context) *sqs.Client {
	cfg, err := awsGetSdkConfig(ctx)
	if err != nil {
		log.Printf("Failed to initialize SQS client: %s\n", err.Error())
		return nil
	}
	return sqs.NewFromConfig(*cfg)
}

func AWSGetSNSClient(ctx context.Context) *sns.Client {
	cfg, err := awsGetSdkConfig(ctx)
	if err != nil {
		log.Printf("Failed to initialize SNS client: %s\n", err.Error())
		return nil
	}
	return sns.NewFromConfig(*cfg)
}

func SQSDeleteMessage(ctx context.Context, c *sqs.Client, qurl *string, msg *sqsTypes.Message) {
	_, err := c.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      qurl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
		return
	}
}
