package router

import (
	"The_Connection/internal/handler"
	"The_Connection/internal/middleware"
	"The_Connection/internal/repository"
	"The_Connection/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services 路由依赖的业务服务
type Services struct {
	Users       *service.UserService
	Communities *service.CommunityService
	Posts       *service.PostService
	Groups      *service.GroupService
	Prayers     *service.PrayerService
	Events      *service.EventService
	Microblogs  *service.MicroblogService
	Livestreams *service.LivestreamService
	Messages    *service.MessageService
	Connections *service.ConnectionService
	Moderation  *service.ModerationService
}

// NewServices 用同一个 Store 组装全部服务
func NewServices(store repository.Store, sessions service.Sessions) *Services {
	return &Services{
		Users:       service.NewUserService(store, sessions),
		Communities: service.NewCommunityService(store),
		Posts:       service.NewPostService(store),
		Groups:      service.NewGroupService(store),
		Prayers:     service.NewPrayerService(store),
		Events:      service.NewEventService(store),
		Microblogs:  service.NewMicroblogService(store),
		Livestreams: service.NewLivestreamService(store),
		Messages:    service.NewMessageService(store),
		Connections: service.NewConnectionService(store),
		Moderation:  service.NewModerationService(store),
	}
}

// InitRouter sessions 为 nil 时不做单点登录校验
func InitRouter(svc *Services, sessions middleware.SessionChecker) *gin.Engine {
	r := gin.Default()

	user := handler.NewUserHandler(svc.Users)
	community := handler.NewCommunityHandler(svc.Communities)
	post := handler.NewPostHandler(svc.Posts)
	group := handler.NewGroupHandler(svc.Groups)
	prayer := handler.NewPrayerHandler(svc.Prayers)
	event := handler.NewEventHandler(svc.Events)
	microblog := handler.NewMicroblogHandler(svc.Microblogs)
	livestream := handler.NewLivestreamHandler(svc.Livestreams)
	message := handler.NewMessageHandler(svc.Messages)
	connection := handler.NewConnectionHandler(svc.Connections)
	moderation := handler.NewModerationHandler(svc.Moderation)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(sessions))

	// 登录态接口
	auth := api.Group("/auth")
	{
		auth.POST("/logout", user.Logout)
		auth.POST("/change-password", user.ChangePassword)
	}

	me := api.Group("/me")
	{
		me.GET("", user.Me)
		me.PATCH("", user.UpdateSettings)
		me.DELETE("", user.DeleteAccount)
		me.POST("/push-tokens", user.RegisterPushToken)
		me.DELETE("/push-tokens", user.RemovePushToken)
	}

	users := api.Group("/users")
	{
		users.GET("", user.Search)
		users.GET("/:id", user.Get)
	}

	// 社区相关接口
	communities := api.Group("/communities")
	{
		communities.POST("", community.Create)
		communities.GET("", community.List)
		communities.GET("/mine", community.Mine)
		communities.GET("/slug/:slug", community.GetBySlug)
		communities.GET("/:id", community.Get)
		communities.PATCH("/:id", community.Update)
		communities.DELETE("/:id", community.Delete)
		communities.POST("/:id/join", community.Join)
		communities.POST("/:id/leave", community.Leave)
		communities.GET("/:id/members", community.Members)
		communities.PUT("/:id/members/:userId/role", community.SetRole)
		communities.POST("/:id/rooms", community.CreateRoom)
		communities.GET("/:id/rooms", community.Rooms)
	}

	rooms := api.Group("/rooms")
	{
		rooms.DELETE("/:roomId", community.DeleteRoom)
		rooms.POST("/:roomId/messages", community.SendChat)
		rooms.GET("/:roomId/messages", community.ChatHistory)
	}

	// 帖子相关接口
	posts := api.Group("/posts")
	{
		posts.POST("", post.Create)
		posts.GET("", post.List)
		posts.GET("/:id", post.Get)
		posts.DELETE("/:id", post.Delete)
		posts.POST("/:id/upvote", post.Upvote)
		posts.POST("/:id/comments", post.Comment)
		posts.GET("/:id/comments", post.Comments)
	}

	comments := api.Group("/comments")
	{
		comments.POST("/:id/upvote", post.UpvoteComment)
		comments.DELETE("/:id", post.DeleteComment)
	}

	groups := api.Group("/groups")
	{
		groups.POST("", group.Create)
		groups.GET("/mine", group.Mine)
		groups.GET("/:id/members", group.Members)
		groups.POST("/:id/members", group.AddMember)
		groups.DELETE("/:id/members/:userId", group.RemoveMember)
	}

	prayers := api.Group("/prayer-requests")
	{
		prayers.POST("", prayer.Create)
		prayers.GET("", prayer.List)
		prayers.GET("/mine", prayer.Mine)
		prayers.GET("/:id", prayer.Get)
		prayers.PATCH("/:id", prayer.Update)
		prayers.DELETE("/:id", prayer.Delete)
		prayers.POST("/:id/answered", prayer.MarkAnswered)
		prayers.POST("/:id/pray", prayer.Pray)
		prayers.GET("/:id/prayers", prayer.Prayers)
	}

	events := api.Group("/events")
	{
		events.POST("", event.Create)
		events.GET("", event.List)
		events.GET("/upcoming", event.Upcoming)
		events.GET("/nearby", event.Nearby)
		events.GET("/:id", event.Get)
		events.PATCH("/:id", event.Update)
		events.DELETE("/:id", event.Delete)
		events.PUT("/:id/rsvp", event.RSVP)
		events.DELETE("/:id/rsvp", event.CancelRSVP)
		events.GET("/:id/rsvps", event.RSVPs)
	}

	microblogs := api.Group("/microblogs")
	{
		microblogs.POST("", microblog.Create)
		microblogs.GET("", microblog.List)
		microblogs.GET("/liked", microblog.Liked)
		microblogs.GET("/:id", microblog.Get)
		microblogs.PATCH("/:id", microblog.Update)
		microblogs.DELETE("/:id", microblog.Delete)
		microblogs.POST("/:id/like", microblog.Like)
		microblogs.DELETE("/:id/like", microblog.Unlike)
	}

	livestreams := api.Group("/livestreams")
	{
		livestreams.POST("", livestream.Create)
		livestreams.GET("", livestream.List)
		livestreams.DELETE("/:id", livestream.Delete)
	}

	applications := api.Group("/livestreamer-applications")
	{
		applications.POST("", livestream.Apply)
		applications.GET("/mine", livestream.MyApplication)
	}

	messages := api.Group("/messages")
	{
		messages.POST("", message.Send)
		messages.GET("/partners", message.Partners)
		messages.GET("/with/:userId", message.Conversation)
	}

	// 用户关系相关接口
	connections := api.Group("/connections")
	{
		connections.GET("", connection.List)
		connections.POST("/users/:userId", connection.Request)
		connections.PATCH("/:id", connection.SetStatus)
	}

	api.POST("/reports", moderation.Report)

	blocks := api.Group("/blocks")
	{
		blocks.POST("", moderation.Block)
		blocks.GET("", moderation.Blocks)
		blocks.DELETE("/:userId", moderation.Unblock)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/reports", moderation.Reports)
		admin.PATCH("/reports/:id", moderation.Resolve)
		admin.GET("/livestreamer-applications", livestream.Applications)
		admin.GET("/livestreamer-applications/stats", livestream.Stats)
		admin.PATCH("/livestreamer-applications/:id", livestream.Review)
	}

	return r
}
