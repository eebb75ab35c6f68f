package sse

import (
	"fmt"
	"log"
	"sync"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// GlobalHub is the singleton SSE Hub instance
var GlobalHub = NewHub()

// NewHub creates a new SSE Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[SSE] Client registered: id=%s user=%s (total: %d)", client.ID, client.UserID, len(h.clients))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Client unregistered: id=%s (total: %d)", clientID, len(h.clients))
	}
}

// Broadcast sends an event to all connected clients
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Client %s buffer full, skipping event", client.ID)
		}
	}
}

// PublishECOUpdate ECO状态变化（提交、审批、实施等）
func PublishECOUpdate(ecoID, action string) {
	data := fmt.Sprintf(`{"eco_id":"%s","action":"%s"}`, ecoID, action)
	GlobalHub.Broadcast(Event{
		EventType: "eco_update",
		Data:      data,
	})
	log.Printf("[SSE] Published eco_update: eco=%s action=%s", ecoID, action)
}

// PublishPlanUpdate 生产计划级别更新（排程、进度、状态变化）
func PublishPlanUpdate(planID, action string) {
	data := fmt.Sprintf(`{"plan_id":"%s","action":"%s"}`, planID, action)
	GlobalHub.Broadcast(Event{
		EventType: "plan_update",
		Data:      data,
	})
	log.Printf("[SSE] Published plan_update: plan=%s action=%s", planID, action)
}

// PublishBOMUpdate BOM成本或结构变化
func PublishBOMUpdate(bomID, action string) {
	data := fmt.Sprintf(`{"bom_id":"%s","action":"%s"}`, bomID, action)
	GlobalHub.Broadcast(Event{
		EventType: "bom_update",
		Data:      data,
	})
	log.Printf("[SSE] Published bom_update: bom=%s action=%s", bomID, action)
}

// SendToUser 给特定用户发送事件（而非广播）
func SendToUser(userID string, event Event) {
	GlobalHub.mu.RLock()
	defer GlobalHub.mu.RUnlock()
	for _, client := range GlobalHub.clients {
		if client.UserID == userID {
			select {
			case client.Events <- event:
			default:
				log.Printf("[SSE] Client %s buffer full, skipping user event", client.ID)
			}
		}
	}
}
