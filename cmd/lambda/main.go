// Package main is the AWS Lambda entry point for the translation API.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"

	"github.com/valpere/linguabridge/cmd"
	"github.com/valpere/linguabridge/internal/config"
	"github.com/valpere/linguabridge/internal/server"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	svc, _, logger, err := cmd.BuildService(config.NewViper())
	if err != nil {
		slog.Error("failed to configure service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(svc, logger)
	lambda.Start(newHandler(srv.HandleAPIGateway, lambdaInvoker(context.Background())))
}

type gatewayFunc func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

func newHandler(gateway gatewayFunc, invoke invoker) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, event json.RawMessage) (any, error) {
		// Warmup pings must never reach the model.
		if ping, ok := parseWarmup(event); ok {
			return warm(ctx, ping, invoke)
		}

		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(event, &req); err != nil {
			return nil, err
		}
		return gateway(ctx, req)
	}
}
