package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/bancodigital/banca-api/internal/config"
	"github.com/bancodigital/banca-api/internal/handler"
	"github.com/bancodigital/banca-api/internal/middleware"
	"github.com/bancodigital/banca-api/internal/postgrest"
	"github.com/bancodigital/banca-api/internal/service"
	"github.com/bancodigital/banca-api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db := postgrest.New(cfg.SupabaseURL, cfg.SupabaseKey)

	rdb, err := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()
	sessions := session.NewStore(rdb, cfg.SessionTTL)

	accounts := service.NewAccountService(db)
	registrations := service.NewRegisterService(db)

	jwtSecret := []byte(cfg.JWTSecret)
	authHandler := handler.NewAuthHandler(accounts, sessions, jwtSecret, cfg.SessionTTL)
	accountHandler := handler.NewAccountHandler(accounts)
	registerHandler := handler.NewRegisterHandler(registrations)

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/v1/auth/login", authHandler.Login)
	router.POST("/v1/register", registerHandler.Register)

	v1 := router.Group("/v1", middleware.Auth(jwtSecret, sessions))
	{
		v1.POST("/auth/logout", authHandler.Logout)
		v1.GET("/account", accountHandler.GetAccount)
		v1.POST("/account/deposits", accountHandler.Deposit)
		v1.POST("/account/withdrawals", accountHandler.Withdraw)
		v1.GET("/account/operations", accountHandler.History)
		v1.PATCH("/holder/contact", accountHandler.UpdateContact)
	}

	log.Printf("Banking API starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
