// Package webapi 暴露记账助手的 HTTP 接口，供前端页面调用。
// POST /api/chat 以 SSE 帧流式返回回答过程。
package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fincat-app/finchat/assistant"
	"github.com/fincat-app/finchat/finance"
)

// Config 是路由注册所需的依赖。
type Config struct {
	Assistant *assistant.Assistant
	Cache     *finance.Cache
}

// RegisterRoutes 把接口挂到 gin 路由上。
func RegisterRoutes(r gin.IRouter, cfg Config) {
	s := &server{assistant: cfg.Assistant, cache: cfg.Cache}
	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/summary", s.handleSummary)
	api.GET("/history", s.handleHistory)
	api.POST("/chat", s.handleChat)
	api.POST("/chat/reset", s.handleReset)
}

type server struct {
	assistant *assistant.Assistant
	cache     *finance.Cache
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSummary 返回当前选中年份与总体收支概览。
func (s *server) handleSummary(c *gin.Context) {
	income, expense, balance := s.cache.Totals()
	c.JSON(http.StatusOK, gin.H{
		"transactionCount": len(s.cache.All()),
		"selectedYear":     s.cache.SelectedYear(),
		"availableYears":   s.cache.AvailableYears(),
		"totalIncome":      income.StringFixed(2),
		"totalExpense":     expense.StringFixed(2),
		"balance":          balance.StringFixed(2),
	})
}

func (s *server) handleHistory(c *gin.Context) {
	history := s.assistant.History()
	if history == nil {
		history = []assistant.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": history})
}

func (s *server) handleReset(c *gin.Context) {
	s.assistant.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
