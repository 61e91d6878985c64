package handlers

import "github.com/gin-gonic/gin"

type Router struct {
	handler *Handler
}

func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

func (r *Router) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/", page("Hello this is my home page"))
	engine.GET("/about", page("Hello this is my about page"))
	engine.GET("/contact", page("Hello this is my contact page"))
	engine.GET("/healthz", r.handler.health)

	users := engine.Group("/users")
	users.GET("", r.handler.listUsers)
	users.POST("", r.handler.createUser)
	users.DELETE("", r.handler.deleteAllUsers)
	users.PUT("/:id", r.handler.updateUser)
	users.DELETE("/:id", r.handler.deleteUser)
}
