package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/slidesmith/backend/config"
	"k8s.io/klog/v2"
)

// ErrEmptyResponse 模型没有返回内容
var ErrEmptyResponse = errors.New("empty response from LLM")

// ChatModel 封装 Eino 的 OpenAI ChatModel，附加调用超时
type ChatModel struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewChatModel 根据配置创建 OpenAI 兼容的 ChatModel
func NewChatModel(cfg config.LLMConfig) (*ChatModel, error) {
	klog.V(6).Infof("[LLMChatModel] 创建 OpenAI ChatModel: model=%s, baseURL=%s", cfg.Model, cfg.APIURL)

	mc := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.APIURL != "" {
		mc.BaseURL = cfg.APIURL
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		mc.MaxTokens = &maxTokens
	}

	cm, err := openai.NewChatModel(context.Background(), mc)
	if err != nil {
		klog.Errorf("[LLMChatModel] 创建 ChatModel 失败: %v", err)
		return nil, err
	}
	return NewWithModel(cm, cfg.Timeout), nil
}

// NewWithModel 包装任意 Eino ChatModel
func NewWithModel(cm model.BaseChatModel, timeout time.Duration) *ChatModel {
	return &ChatModel{chatModel: cm, timeout: timeout}
}

// Generate 同步生成响应
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	klog.V(6).Infof("[LLMChatModel] Generate 开始: messageCount=%d", len(input))
	for i, msg := range input {
		klog.V(8).Infof("[LLMChatModel]   Message[%d]: role=%s, content=%s", i, msg.Role, msg.Content)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	resp, err := m.chatModel.Generate(ctx, input, opts...)
	if err != nil {
		klog.Errorf("[LLMChatModel] Generate 失败: %v", err)
		return nil, err
	}
	klog.V(6).Infof("[LLMChatModel] Generate 完成: responseLength=%d", len(resp.Content))
	return resp, nil
}

// Complete 以 system + user 两条消息调用模型，返回文本内容
func (m *ChatModel) Complete(ctx context.Context, system, user string, opts ...model.Option) (string, error) {
	msgs := []*schema.Message{schema.UserMessage(user)}
	if system != "" {
		msgs = append([]*schema.Message{schema.SystemMessage(system)}, msgs...)
	}
	resp, err := m.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
