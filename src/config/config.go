package config

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"maidops/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/kelseyhightower/envconfig"
	"github.com/tidwall/gjson"
)

// const dsn = "host=localhost user=postgres password=password dbname=maidopsdb port=5432 sslmode=disable TimeZone=Asia/Manila"

type App struct {
	APIEnv string `envconfig:"API_ENV" default:"local"`
	Port   string `envconfig:"PORT" default:"9090"`

	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     string `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSLMODE" default:"disable"`
	DatabaseTimezone string `envconfig:"DATABASE_TIMEZONE" default:"Asia/Manila"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"postgres"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"maidopsdb"`
	DatabaseSecretID string `envconfig:"DATABASE_SECRET_ID"`

	RedisHost string `envconfig:"REDIS_HOST" default:"redis://localhost:6379/0"`

	KafkaBroker      string `envconfig:"KAFKA_BROKER"`
	KafkaStatusTopic string `envconfig:"KAFKA_STATUS_TOPIC" default:"booking-status-changed"`
	EventsTopicArn   string `envconfig:"EVENTS_TOPIC_ARN"`
	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	RabbitMQExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"maidops.events"`

	PaymentUpdatesQueue string        `envconfig:"PAYMENT_UPDATES_QUEUE" default:"PaymentStatusUpdates"`
	ReconcileInterval   time.Duration `envconfig:"RECONCILE_INTERVAL" default:"10m"`
	ReconcileLookback   time.Duration `envconfig:"RECONCILE_LOOKBACK" default:"168h"`

	JWTSecret    string `envconfig:"JWT_SECRET"`
	QRCSecret    string `envconfig:"API_QRC_SECRET"`
	TempDir      string `envconfig:"TEMP_DIR" default:"tmp"`
	AllowOrigins string `envconfig:"APP_HOST"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

func (c App) GetDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", c.DatabaseHost, c.DatabaseUser, c.DatabasePassword, c.DatabaseName, c.DatabasePort, c.DatabaseSSLMode, c.DatabaseTimezone)
}

func (c App) IsProd() bool {
	return types.Environment(c.APIEnv) == types.Production
}

// LoadDatabaseSecret replaces the database credentials with the ones stored in
// AWS Secrets Manager under DATABASE_SECRET_ID. The secret is the JSON document
// RDS generates ({"username": ..., "password": ...}).
func (c *App) LoadDatabaseSecret(ctx context.Context) error {
	if c.DatabaseSecretID == "" {
		return nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return err
	}
	client := secretsmanager.NewFromConfig(cfg)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(c.DatabaseSecretID),
	})
	if err != nil {
		log.Printf("Error retrieving secret [%s]: %s\n", c.DatabaseSecretID, err.Error())
		return err
	}
	secret := aws.ToString(out.SecretString)
	if !gjson.Valid(secret) {
		return fmt.Errorf("secret %s is not valid json", c.DatabaseSecretID)
	}
	if user := gjson.Get(secret, "username").String(); user != "" {
		c.DatabaseUser = user
	}
	if pass := gjson.Get(secret, "password").String(); pass != "" {
		c.DatabasePassword = pass
	}
	return nil
}

const (
	TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
	DATE_FORMAT       = "2006-01-02"
	CLOCK_FORMAT      = "15:04"
	TIMEZONE          = "Asia/Manila"
)

var (
	manila     *time.Location
	manilaOnce sync.Once
)

// Location returns the service timezone used for weekend and day-window math.
func Location() *time.Location {
	manilaOnce.Do(func() {
		loc, err := time.LoadLocation(TIMEZONE)
		if err != nil {
			log.Printf("Error loading timezone %s, using fixed +08:00: %s\n", TIMEZONE, err.Error())
			loc = time.FixedZone(TIMEZONE, 8*60*60)
		}
		manila = loc
	})
	return manila
}
