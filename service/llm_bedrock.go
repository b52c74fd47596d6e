package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
)

// BedrockClient 通过 AWS Bedrock Runtime InvokeModel 调用 Claude
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
	version string
}

func NewBedrockClient(ctx context.Context, cfg *config.NarratorConfig) (*BedrockClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		// 远程调用只发一次，失败直接返回
		awsconfig.WithRetryMaxAttempts(1),
	}
	// 未显式配置密钥时走默认凭证链（环境变量 / .env / 共享配置）
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	clientOpts := []func(*bedrockruntime.Options){
		func(o *bedrockruntime.Options) {
			o.Retryer = aws.NopRetryer{}
		},
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(awsCfg, clientOpts...),
		modelID: cfg.ModelID,
		version: cfg.AnthropicVersion,
	}, nil
}

func (c *BedrockClient) Name() string {
	return "bedrock:" + c.modelID
}

func (c *BedrockClient) Invoke(ctx context.Context, req *MessagesRequest) ([]byte, error) {
	payload := *req
	payload.AnthropicVersion = c.version
	payload.Model = ""

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke model: %w", err)
	}

	return out.Body, nil
}
