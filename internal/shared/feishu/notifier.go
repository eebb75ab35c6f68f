package feishu

import (
	"context"
	"encoding/json"
	"fmt"
)

// SendTextMessage 给指定用户发送文本消息
func (c *FeishuClient) SendTextMessage(ctx context.Context, userID, text string) error {
	content, _ := json.Marshal(map[string]string{"text": text})
	reqBody := map[string]interface{}{
		"receive_id": userID,
		"msg_type":   "text",
		"content":    string(content),
	}

	err := c.doRequest(ctx, "POST", "/open-apis/im/v1/messages?receive_id_type=user_id", reqBody, nil)
	if err != nil {
		return fmt.Errorf("发送飞书消息失败: %w", err)
	}
	return nil
}

// CreateTask 给指定用户创建待办任务，返回任务guid
func (c *FeishuClient) CreateTask(ctx context.Context, userID, summary, description string) (string, error) {
	reqBody := map[string]interface{}{
		"summary": summary,
		"members": []map[string]interface{}{
			{"id": userID, "role": "assignee"},
		},
	}
	if description != "" {
		reqBody["description"] = description
	}

	var resp struct {
		Data struct {
			Task struct {
				Guid string `json:"guid"`
			} `json:"task"`
		} `json:"data"`
	}
	err := c.doRequest(ctx, "POST", "/open-apis/task/v2/tasks", reqBody, &resp)
	if err != nil {
		return "", fmt.Errorf("创建飞书任务失败: %w", err)
	}
	return resp.Data.Task.Guid, nil
}

// Notifier 业务通知适配器
type Notifier struct {
	client *FeishuClient
}

// NewNotifier 创建通知适配器
func NewNotifier(appID, appSecret string) *Notifier {
	return &Notifier{client: NewClient(appID, appSecret)}
}

// PostMessage 发送文本通知
func (n *Notifier) PostMessage(ctx context.Context, userID, text string) error {
	return n.client.SendTextMessage(ctx, userID, text)
}

// ScheduleActivity 创建待办任务
func (n *Notifier) ScheduleActivity(ctx context.Context, userID, summary, note string) error {
	_, err := n.client.CreateTask(ctx, userID, summary, note)
	return err
}
