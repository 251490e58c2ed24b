package server

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all endpoints with the given router group.
//
//	GET    /health
//	GET    /tasks            list tasks, optionally scoped with ?user_id
//	POST   /tasks            create a task
//	PUT    /tasks/:id        replace a task
//	DELETE /tasks/:id        delete a task, returning the deleted record
//	GET    /suggest-task     suggest a task for the first free schedule slot
//	POST   /chat             one conversational turn
//	POST   /users/register   create an account
//	POST   /users/login      verify credentials
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/health", h.HandleHealth)

	tasks := rg.Group("/tasks")
	{
		tasks.GET("", h.HandleListTasks)
		tasks.POST("", h.HandleCreateTask)
		tasks.PUT("/:id", h.HandleUpdateTask)
		tasks.DELETE("/:id", h.HandleDeleteTask)
	}

	rg.GET("/suggest-task", h.HandleSuggestTask)
	rg.POST("/chat", h.HandleChat)

	users := rg.Group("/users")
	{
		users.POST("/register", h.HandleRegister)
		users.POST("/login", h.HandleLogin)
	}
}
