// Package mcp 提供 MCP (Model Context Protocol) 客户端集成
package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// 传输类型
const (
	TransportSSE        = "sse"
	TransportCommand    = "command"
	TransportStreamable = "streamable"
)

// ServerConfig MCP 服务器配置
type ServerConfig struct {
	Name     string
	Type     string
	Endpoint string
	Command  string
	Args     []string
}

// createTransport 根据配置创建 MCP 传输层
func createTransport(cfg ServerConfig) mcp.Transport {
	switch cfg.Type {
	case TransportSSE:
		return &mcp.SSEClientTransport{Endpoint: cfg.Endpoint}
	case TransportCommand:
		return &mcp.CommandTransport{Command: exec.Command(cfg.Command, cfg.Args...)}
	default:
		if cfg.Endpoint == "" && cfg.Command != "" {
			return &mcp.CommandTransport{Command: exec.Command(cfg.Command, cfg.Args...)}
		}
		return &mcp.StreamableClientTransport{Endpoint: cfg.Endpoint}
	}
}

// Client 每次调用建立独立会话，调用结束即关闭
type Client struct {
	cfg       ServerConfig
	transport func() mcp.Transport
}

// NewClient 创建 MCP 客户端
func NewClient(cfg ServerConfig) *Client {
	return &Client{
		cfg:       cfg,
		transport: func() mcp.Transport { return createTransport(cfg) },
	}
}

func (c *Client) connect(ctx context.Context) (*mcp.ClientSession, error) {
	impl := &mcp.Implementation{Name: c.cfg.Name, Version: "1.0.0"}
	client := mcp.NewClient(impl, nil)
	session, err := client.Connect(ctx, c.transport(), nil)
	if err != nil {
		return nil, fmt.Errorf("connect mcp server %s: %w", c.cfg.Name, err)
	}
	return session, nil
}

// ListTools 获取服务器工具名列表，也用于连通性检查
func (c *Client) ListTools(ctx context.Context) ([]string, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	resp, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		names = append(names, t.Name)
	}
	return names, nil
}

// CallTool 调用工具并拼接返回的文本内容
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}

	var sb strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(text.Text)
		}
	}
	if res.IsError {
		return "", fmt.Errorf("tool %s returned error: %s", name, sb.String())
	}
	return sb.String(), nil
}
