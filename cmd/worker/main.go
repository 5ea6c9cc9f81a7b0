package main

import (
	"context"
	"log"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-restaurant-pos/internal/aws"
	"github.com/imrishuroy/go-restaurant-pos/internal/config"
	"github.com/imrishuroy/go-restaurant-pos/internal/database"
	"github.com/imrishuroy/go-restaurant-pos/internal/idempotency"
	"github.com/imrishuroy/go-restaurant-pos/internal/logger"
	"github.com/imrishuroy/go-restaurant-pos/internal/tables"
)

func main() {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr := logger.New("pos-worker", cfg.Log.Level)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg, logr)
	if err != nil {
		logr.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var dedupe Deduper
	if cfg.Idempotency.Table != "" {
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			logr.Error("failed to init aws clients", "error", err)
			os.Exit(1)
		}
		dedupe = idempotency.NewStore(clients.DynamoDB, cfg.Idempotency.Table, cfg.Idempotency.TTLWindow)
	}

	p := NewProcessor(tables.NewService(tables.NewStore(db), logr), dedupe, logr)

	// RUN_LOCAL feeds a single message from LOCAL_SQS_BODY through the processor.
	if cfg.Server.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"event_id":"local-1","type":"order.placed","order_id":1,"table_number":1}`
		}
		resp, _ := p.Handle(ctx, lambdaevents.SQSEvent{
			Records: []lambdaevents.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if len(resp.BatchItemFailures) > 0 {
			logr.Error("local message failed")
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
