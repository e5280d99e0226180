// Package server 长驻服务模式：把业务操作层以 HTTP API 形式暴露给宿主扩展。
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/service"
)

// Server HTTP 服务器
type Server struct {
	router   *gin.Engine
	services *service.Services
}

// New 创建服务器
func New(services *service.Services, devMode bool) *Server {
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		router:   gin.Default(),
		services: services,
	}
	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.GET("/status", s.getStatus)

		// 实体管理
		for _, table := range []string{"suppliers", "customers", "materials"} {
			group := api.Group("/" + table)
			group.GET("", s.listEntities(table))
			group.POST("", s.addEntity(table))
			group.PUT("/:id", s.updateEntity(table))
			group.DELETE("/:id", s.deleteEntity(table))
			group.POST("/batch-delete", s.batchDeleteEntities(table))
		}

		// 物料编码生成路径
		api.POST("/materials/generate", s.addMaterialWithCode)
		api.GET("/materials-view", s.materialsForView)

		// 通用表查询
		api.GET("/query/:table", s.queryTable)

		// 供应商编码
		api.POST("/supplier-codes/assign", s.assignSupplierCodes)
		api.GET("/supplier-codes", s.listSupplierCodes)

		// 报表
		api.GET("/reports/receivables", s.receivablesReport)
		api.GET("/reports/payables", s.payablesReport)
		api.GET("/reports/inventory", s.inventoryReport)
		api.GET("/reports/supplier-reconciliation", s.supplierReconciliation)
		api.GET("/reports/customer-reconciliation", s.customerReconciliation)
	}
}

// Run 启动监听
func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	return s.router.Run(addr)
}

// Router 暴露路由（测试用）
func (s *Server) Router() http.Handler {
	return s.router
}
