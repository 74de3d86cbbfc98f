package api

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"

	"giveaway_bot/internal/telegram"
	"giveaway_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const maxUpdateSize = 1 << 20

type UpdateDispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update)
}

type webhookRoutes struct {
	dispatcher UpdateDispatcher
	secret     string
}

func NewWebhookRoutes(handler gin.IRouter, dispatcher UpdateDispatcher, secret string) {
	r := &webhookRoutes{
		dispatcher: dispatcher,
		secret:     secret,
	}

	handler.POST("/webhook", r.HandleUpdate)
}

// HandleUpdate acknowledges a Telegram delivery as soon as it is decoded. The
// update itself is processed in the background so slow handlers never cause
// Telegram to redeliver.
func (r *webhookRoutes) HandleUpdate(c *gin.Context) {
	log := logger.Logger()

	token := c.GetHeader(telegram.SecretHeader)
	if r.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(r.secret)) != 1 {
		log.Warn("webhook call with invalid secret", zap.String("remote_addr", c.ClientIP()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUpdateSize))
	if err != nil {
		log.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		log.Warn("failed to decode update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	r.dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), update)
	c.Status(http.StatusOK)
}
