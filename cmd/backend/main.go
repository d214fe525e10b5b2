package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scv_loans/pkg/config"
	"scv_loans/pkg/database"
	"scv_loans/pkg/logging"
)

var (
	db     *gorm.DB
	logger = zap.NewNop()
)

func main() {
	l, err := logging.New(config.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	logger = l
	defer logger.Sync()

	logger.Info("starting scv backend")

	db, err = database.Open(config.LoadDB("scv"), logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	seedTestData()

	port := config.GetEnv("BACKEND_PORT", "8060")
	server := setupRouter(gin.Default())

	logger.Info("scv backend listening", zap.String("port", port))
	if err := server.Run(":" + port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func setupRouter(server *gin.Engine) *gin.Engine {
	server.GET("/clientes", getClientes)
	server.GET("/filmes", getFilmes)
	server.GET("/fitas/findByFilme/:id", getFitasByFilme)
	server.GET("/emprestimos", getEmprestimos)
	server.GET("/emprestimos/:id", getEmprestimo)
	server.POST("/emprestimos", createEmprestimo)
	server.PUT("/emprestimos/:id", updateEmprestimo)
	server.DELETE("/emprestimos/:id", deleteEmprestimo)
	server.GET("/manage/health", healthCheck)
	return server
}
