// Package ws 数据集变更的 WebSocket 推送。
// 快照每次被替换（拉取到新数据或保存成功）都会向所有连接广播一条变更消息，
// 前端据此刷新本地数据，不必轮询。
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 推送内容全部是公开数据，跨域订阅无害
		return true
	},
}

// ChangeMessage 数据集变更消息
type ChangeMessage struct {
	Event       string `json:"event"` // 固定 "dataset_changed"
	Dataset     string `json:"dataset"`
	LastUpdated string `json:"last_updated"`
}

const writeTimeout = 5 * time.Second

// Hub 推送中心，维护全部活跃连接
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *zap.Logger
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // 串行化写
}

// NewHub 创建推送中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Serve 升级 HTTP 连接并登记订阅
// GET /api/v1/ws
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", zap.Error(err))
		return
	}

	cl := &client{conn: conn}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("WebSocket 连接建立", zap.Int("clients", total))

	// 订阅是单向的：读循环只负责发现连接关闭
	go h.readLoop(cl)
}

func (h *Hub) readLoop(cl *client) {
	defer h.drop(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	total := len(h.clients)
	h.mu.Unlock()
	_ = cl.conn.Close()
	h.logger.Info("WebSocket 连接断开", zap.Int("clients", total))
}

// NotifyChange 向所有连接广播数据集变更，实现 service.ChangeNotifier。
// 写失败的连接直接剔除。
func (h *Hub) NotifyChange(dataset string, lastUpdated time.Time) {
	msg := ChangeMessage{
		Event:       "dataset_changed",
		Dataset:     dataset,
		LastUpdated: lastUpdated.Format(time.RFC3339Nano),
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		cl.mu.Lock()
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := cl.conn.WriteJSON(msg)
		cl.mu.Unlock()
		if err != nil {
			h.drop(cl)
		}
	}
}

// Close 关闭全部连接（服务停机时调用）
func (h *Hub) Close() {
	h.mu.Lock()
	for cl := range h.clients {
		_ = cl.conn.Close()
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
}
