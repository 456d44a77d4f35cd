package main

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/paygate/internal/api"
	v1 "github.com/flexprice/paygate/internal/api/v1"
	"github.com/flexprice/paygate/internal/config"
	"github.com/flexprice/paygate/internal/dynamodb"
	"github.com/flexprice/paygate/internal/logger"
	"github.com/flexprice/paygate/internal/publisher"
	"github.com/flexprice/paygate/internal/pubsub"
	"github.com/flexprice/paygate/internal/pubsub/kafka"
	"github.com/flexprice/paygate/internal/pubsub/memory"
	sqspubsub "github.com/flexprice/paygate/internal/pubsub/sqs"
	ledgerRepo "github.com/flexprice/paygate/internal/repository/dynamodb"
	"github.com/flexprice/paygate/internal/service"
	"github.com/flexprice/paygate/internal/types"
	"go.uber.org/fx"

	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Store
			dynamodb.NewClient,
			ledgerRepo.NewLedgerRepository,

			// Queue
			sqspubsub.NewClient,
			providePubSub,
			provideRawPublisher,

			// Services
			service.NewServiceParams,
			service.NewIngestionService,
			service.NewReconciler,
			service.NewBatchConsumer,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)
	app.Run()
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) (pubsub.PubSub, error) {
	switch cfg.Webhook.PubSub {
	case types.MemoryPubSub:
		return memory.NewPubSub(cfg, logger), nil
	case types.KafkaPubSub:
		return kafka.NewPubSub(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported pubsub type: %s", cfg.Webhook.PubSub)
	}
}

func provideRawPublisher(
	cfg *config.Configuration,
	logger *logger.Logger,
	pubSub pubsub.PubSub,
	sqsClient *sqspubsub.Client,
) (publisher.RawPublisher, error) {
	switch cfg.Event.PublishDestination {
	case types.PublishToSQS:
		return sqspubsub.NewPublisher(sqsClient, logger), nil
	default:
		return publisher.NewPubSubPublisher(pubSub, cfg, logger), nil
	}
}

func provideHandlers(
	ingestionService service.IngestionService,
	logger *logger.Logger,
) api.Handlers {
	return api.Handlers{
		Webhook: v1.NewWebhookHandler(ingestionService, logger),
		Health:  v1.NewHealthHandler(logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	pubSub pubsub.PubSub,
	sqsClient *sqspubsub.Client,
	consumer service.BatchConsumer,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startConsumer(lc, cfg, pubSub, sqsClient, consumer, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeConsumer:
		startConsumer(lc, cfg, pubSub, sqsClient, consumer, log)
	case types.ModeAWSLambdaAPI:
		startAWSLambdaAPI(r)
	case types.ModeAWSLambdaConsumer:
		startAWSLambdaConsumer(consumer, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startConsumer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	pubSub pubsub.PubSub,
	sqsClient *sqspubsub.Client,
	consumer service.BatchConsumer,
	log *logger.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if cfg.Event.PublishDestination == types.PublishToSQS {
				if sqsClient == nil {
					log.Fatal("SQS client required when consuming from SQS")
				}
				receiver := sqspubsub.NewReceiver(sqsClient, cfg, log)
				go func() {
					if err := receiver.Run(ctx, consumer.Consume); err != nil && ctx.Err() == nil {
						log.Fatalf("SQS receiver stopped: %v", err)
					}
				}()
				return nil
			}

			if pubSub == nil {
				log.Fatal("PubSub required for consumer mode")
			}
			go consumeMessages(ctx, pubSub, cfg, consumer, log)
			return nil
		},
		OnStop: func(context.Context) error {
			log.Info("Shutting down consumer...")
			cancel()
			return nil
		},
	})
}

func consumeMessages(
	ctx context.Context,
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	consumer service.BatchConsumer,
	log *logger.Logger,
) {
	messages, err := pubSub.Subscribe(ctx, cfg.Webhook.Topic)
	if err != nil {
		log.Fatalf("Failed to subscribe to topic %s: %v", cfg.Webhook.Topic, err)
	}

	for msg := range messages {
		err := consumer.ProcessMessage(ctx, types.QueueMessage{
			ID:   msg.UUID,
			Body: msg.Payload,
		})
		if err != nil {
			log.Errorw("failed to process message, requeueing",
				"error", err,
				"message_uuid", msg.UUID,
			)
			msg.Nack()
			continue
		}
		msg.Ack()
	}
}

func startAWSLambdaAPI(r *gin.Engine) {
	ginLambda := ginadapter.New(r)
	lambda.Start(ginLambda.ProxyWithContext)
}

func startAWSLambdaConsumer(consumer service.BatchConsumer, log *logger.Logger) {
	handler := func(ctx context.Context, sqsEvent lambdaEvents.SQSEvent) (lambdaEvents.SQSEventResponse, error) {
		batch := make([]types.QueueMessage, 0, len(sqsEvent.Records))
		for _, record := range sqsEvent.Records {
			batch = append(batch, types.QueueMessage{
				ID:   record.MessageId,
				Body: []byte(record.Body),
			})
		}

		failed := consumer.Consume(ctx, batch)

		// Only the failed messages are redelivered; the rest of the batch
		// is acknowledged by omission.
		response := lambdaEvents.SQSEventResponse{}
		for _, id := range failed {
			response.BatchItemFailures = append(response.BatchItemFailures, lambdaEvents.SQSBatchItemFailure{
				ItemIdentifier: id,
			})
		}

		log.Debugw("processed sqs batch",
			"batch_size", len(batch),
			"failed", len(failed),
		)

		return response, nil
	}

	lambda.Start(handler)
}
