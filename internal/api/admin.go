package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"giveaway_bot/internal/events"
	"giveaway_bot/internal/middleware"
	"giveaway_bot/internal/service"
	"giveaway_bot/pkg/auth"
	"giveaway_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type EventSource interface {
	Subscribe() (<-chan events.Message, func())
}

type adminRoutes struct {
	admin    service.AdminServiceI
	contacts service.ContactServiceI
	events   EventSource
}

func NewAdminRoutes(
	handler *gin.RouterGroup,
	admin service.AdminServiceI,
	contacts service.ContactServiceI,
	events EventSource,
	a *auth.TelegramAuth,
	authz *middleware.Authorization,
) {
	r := &adminRoutes{
		admin:    admin,
		contacts: contacts,
		events:   events,
	}

	h := handler.Group("/admin")
	h.Use(a.TelegramAuthMiddleware(), authz.AdminOnly())
	{
		h.GET("/stats", r.GetStats)
		h.GET("/export", r.ExportUsers)
		h.GET("/users/:telegram_id", r.GetUser)
		h.GET("/events", r.StreamEvents)
	}
}

type StatsResponse struct {
	TotalUsers              int `json:"total_users"`
	TotalSubscribed         int `json:"total_subscribed"`
	TotalParticipants       int `json:"total_participants"`
	TotalConfirmedReferrals int `json:"total_confirmed_referrals"`
}

type UserResponse struct {
	TelegramID              int64      `json:"telegram_id"`
	Username                string     `json:"username,omitempty"`
	FirstName               string     `json:"first_name,omitempty"`
	LastName                string     `json:"last_name,omitempty"`
	ContactName             string     `json:"contact_name,omitempty"`
	ContactPhone            string     `json:"contact_phone,omitempty"`
	IsSubscribed            bool       `json:"is_subscribed"`
	ReferredBy              *int64     `json:"referred_by,omitempty"`
	ReferralsConfirmed      int        `json:"referrals_confirmed"`
	IsParticipant           bool       `json:"is_participant"`
	LastSubscriptionCheckAt *time.Time `json:"last_subscription_check_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

func (r *adminRoutes) GetStats(c *gin.Context) {
	log := logger.Logger()

	stats, err := r.admin.CollectStats(c.Request.Context())
	if err != nil {
		log.Error("failed to collect stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalUsers:              stats.TotalUsers,
		TotalSubscribed:         stats.TotalSubscribed,
		TotalParticipants:       stats.TotalParticipants,
		TotalConfirmedReferrals: stats.TotalConfirmedReferrals,
	})
}

func (r *adminRoutes) ExportUsers(c *gin.Context) {
	log := logger.Logger()

	data, err := r.admin.ExportUsersCSV(c.Request.Context())
	if err != nil {
		log.Error("failed to export users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	name := fmt.Sprintf("giveaway_export_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (r *adminRoutes) GetUser(c *gin.Context) {
	log := logger.Logger()

	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Info("invalid telegram_id", zap.String("telegram_id", c.Param("telegram_id")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	user, err := r.contacts.GetUser(c.Request.Context(), telegramID)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		log.Error("failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		TelegramID:              user.TelegramID,
		Username:                user.Username,
		FirstName:               user.FirstName,
		LastName:                user.LastName,
		ContactName:             user.ContactName,
		ContactPhone:            user.ContactPhone,
		IsSubscribed:            user.IsSubscribed,
		ReferredBy:              user.ReferredBy,
		ReferralsConfirmed:      user.ReferralsConfirmed,
		IsParticipant:           user.IsParticipant,
		LastSubscriptionCheckAt: user.LastSubscriptionCheckAt,
		CreatedAt:               user.CreatedAt,
	})
}

// StreamEvents upgrades to a websocket and forwards lifecycle events until
// the client goes away.
func (r *adminRoutes) StreamEvents(c *gin.Context) {
	log := logger.Logger()

	var adminID int64
	if admin, ok := auth.UserFromContext(c); ok {
		adminID = admin.ID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	feed, cancel := r.events.Subscribe()
	defer cancel()

	log = log.With(zap.Int64("admin_id", adminID))
	log.Info("events stream opened")

	// The client never sends anything useful; reading only detects close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-feed:
			if !ok {
				return
			}
			out, err := json.Marshal(message)
			if err != nil {
				log.Error("failed to marshal event", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				log.Info("events stream write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-closed:
			log.Info("events stream closed")
			return
		}
	}
}
