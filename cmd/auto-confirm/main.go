package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/presignup"
	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/utils/logging"
)

func main() {
	logger := logging.NewSlogLogger(logging.NewJSON(os.Stdout, slog.LevelInfo))
	lambda.Start(presignup.NewHandler(logger).Handle)
}
