// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// lambda 是 Lex V2 fulfillment code hook 的 Lambda 入口
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/internal/app"
	"github.com/aws-samples/amazon-bedrock-kendra-lex-chatbot/pkg/config"
)

func main() {
	cfg, err := config.LoadLambdaConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	ctx := context.Background()
	bootstrap, err := app.NewBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	if err := bootstrap.InitTracing(ctx); err != nil {
		bootstrap.Logger.Warn("链路追踪未启用", "error", err)
	}

	lambda.StartWithOptions(bootstrap.LexHandler.Handle, lambda.WithEnableSIGTERM(bootstrap.Close))
}
