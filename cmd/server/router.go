package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/stringify/internal/handlers"
	"github.com/thereayou/stringify/internal/middleware"
	"github.com/thereayou/stringify/pkg/auth"
)

func APIEndpoints(r *gin.Engine, timeout time.Duration, tokens *auth.JWTManager,
	meetingH *handlers.MeetingHandler, messageH *handlers.HTTPMessageHandler, wsH *handlers.WebSocketHandler) {

	api := r.Group("/api", middleware.Timeout(timeout))
	{
		api.GET("/ping", handlers.Ping)

		meetings := api.Group("/meetings")
		{
			meetings.POST("/new-meeting", meetingH.NewMeeting)
			meetings.GET("/find-meeting", meetingH.FindMeeting)
			meetings.GET("/profiles-connected", meetingH.ProfilesConnected)
			meetings.POST("/invite/:email/by/:name", meetingH.Invite)
		}

		messages := api.Group("/messages")
		{
			messages.GET("/history", messageH.History)
		}
	}

	r.GET("/stringify-chat/:chatId", middleware.ConnectTokenMiddleware(tokens), wsH.HandleWebSocket)
}
