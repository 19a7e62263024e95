package routes

import (
	"CodeCollab/controllers"
	"CodeCollab/middleware"
	"CodeCollab/services/execution"
	"CodeCollab/services/forum"
	"CodeCollab/services/messages"
	"CodeCollab/services/rooms"
	"CodeCollab/services/storage"
	"CodeCollab/services/users"
	"CodeCollab/utils"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps are the services behind the HTTP API
type Deps struct {
	Rooms    *rooms.Coordinator
	Exec     *execution.Manager
	Remote   *execution.RemoteRunner
	Messages messages.Store
	Users    *users.Service
	Forum    *forum.Service
	Files    *storage.FileStore
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, deps Deps) {
	// utils global
	router.Use(utils.ErrorHandler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/ping", controllers.Ping)

	router.POST("/signup", controllers.SignUp(deps.Users))
	router.POST("/login", controllers.Login(deps.Users))

	authentication := router.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)
		authentication.GET("/me", controllers.GetCurrentUser(deps.Users))
	}

	api := router.Group("/api")

	room := api.Group("/rooms")
	{
		room.POST("/create", controllers.CreateRoom(deps.Rooms))
		room.POST("/join", controllers.JoinRoom(deps.Rooms))
		room.POST("/leave", controllers.LeaveRoom(deps.Rooms))
		room.GET("/:id", controllers.GetRoom(deps.Rooms))
		room.GET("/:id/users-count", controllers.GetUsersCount(deps.Rooms))
	}

	api.POST("/compiler/execute", controllers.ExecuteCode(deps.Exec, deps.Remote))
	api.GET("/messages", controllers.GetMessages(deps.Messages))
	api.GET("/files/:name", controllers.DownloadFile(deps.Files))

	problems := api.Group("/problems")
	{
		problems.GET("", controllers.ListProblems(deps.Forum))
		problems.GET("/:id", controllers.GetProblem(deps.Forum))
		problems.POST("", middleware.AuthRequired, controllers.CreateProblem(deps.Forum, deps.Files))
	}

	solutions := api.Group("/solutions")
	{
		solutions.GET("/problem/:problemId", controllers.SolutionsByProblem(deps.Forum))
		solutions.GET("/user/:username", controllers.SolutionsByUser(deps.Forum))
		solutions.GET("/:solutionId", controllers.GetSolution(deps.Forum))
		solutions.POST("", middleware.AuthRequired, controllers.CreateSolution(deps.Forum))
		solutions.PUT("/:solutionId", middleware.AuthRequired, controllers.UpdateSolution(deps.Forum))
		solutions.POST("/:solutionId/accept", middleware.AuthRequired, controllers.AcceptSolution(deps.Forum))
		solutions.DELETE("/:solutionId", middleware.AuthRequired, controllers.DeleteSolution(deps.Forum))
	}

	resources := api.Group("/resources")
	{
		resources.GET("", controllers.ListResources(deps.Forum))
		resources.GET("/category/:category", controllers.ListResources(deps.Forum))
		resources.GET("/:id", controllers.GetResource(deps.Forum))
		resources.POST("", middleware.AuthRequired, controllers.SaveResource(deps.Forum))
		resources.PUT("/:id", middleware.AuthRequired, controllers.SaveResource(deps.Forum))
		resources.DELETE("/:id", middleware.AuthRequired, controllers.DeleteResource(deps.Forum))
	}
}
