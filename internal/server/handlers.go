package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/codes"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/service"
)

// writeError 统一错误响应：参数错误 400，记录不存在 404，其余 500
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

// getStatus 各集合文档数概览
// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	counts := make(map[string]int)
	total := 0
	tables := append([]string{}, model.TableOrder...)
	tables = append(tables, model.TableMaterials)
	for _, table := range tables {
		n, err := s.services.Store().Count(table, docstore.Query{})
		if err != nil {
			continue
		}
		counts[table] = n
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"initialized":   total > 0,
		"total_records": total,
		"tables":        counts,
	})
}

// listEntities GET /api/<table>?page=1&limit=10&search=&sort=&order=
func (s *Server) listEntities(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.services.ListEntities(table,
			intQuery(c, "page", 1), intQuery(c, "limit", 10), c.Query("search"),
			c.Query("sort"), c.Query("order") == "desc")
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// addEntity POST /api/<table>
func (s *Server) addEntity(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data model.Record
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body: " + err.Error()})
			return
		}
		result, err := s.services.AddEntity(table, data)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// updateEntity PUT /api/<table>/:id
func (s *Server) updateEntity(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data model.Record
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body: " + err.Error()})
			return
		}
		result, err := s.services.UpdateEntity(table, c.Param("id"), data)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// deleteEntity DELETE /api/<table>/:id
func (s *Server) deleteEntity(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.services.DeleteEntity(table, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// batchDeleteEntities POST /api/<table>/batch-delete {"ids": [...]}
func (s *Server) batchDeleteEntities(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body: " + err.Error()})
			return
		}
		result, err := s.services.BatchDeleteEntities(table, body.IDs)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// addMaterialWithCode POST /api/materials/generate
func (s *Server) addMaterialWithCode(c *gin.Context) {
	var input service.MaterialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body: " + err.Error()})
		return
	}
	result, err := s.services.AddMaterial(input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// materialsForView GET /api/materials-view
func (s *Server) materialsForView(c *gin.Context) {
	views, err := s.services.MaterialsForView()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// queryTable GET /api/query/:table?limit=100
func (s *Server) queryTable(c *gin.Context) {
	result, err := s.services.QueryTable(c.Param("table"), intQuery(c, "limit", 100))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// assignSupplierCodes POST /api/supplier-codes/assign
func (s *Server) assignSupplierCodes(c *gin.Context) {
	result, err := codes.AssignSupplierCodes(s.services.Store())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// listSupplierCodes GET /api/supplier-codes
func (s *Server) listSupplierCodes(c *gin.Context) {
	list, err := codes.ListSupplierCodes(s.services.Store())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func reportOptions(c *gin.Context) service.ReportOptions {
	return service.ReportOptions{
		CounterpartyName: c.Query("name"),
		StartDate:        c.Query("start"),
		EndDate:          c.Query("end"),
	}
}

// receivablesReport GET /api/reports/receivables?name=&start=&end=
func (s *Server) receivablesReport(c *gin.Context) {
	report, err := s.services.GenerateReceivablesReport(reportOptions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// payablesReport GET /api/reports/payables?name=&start=&end=
func (s *Server) payablesReport(c *gin.Context) {
	report, err := s.services.GeneratePayablesReport(reportOptions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// inventoryReport GET /api/reports/inventory?name=
func (s *Server) inventoryReport(c *gin.Context) {
	report, err := s.services.GenerateInventoryReport(c.Query("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// supplierReconciliation GET /api/reports/supplier-reconciliation?name=&start=&end=
func (s *Server) supplierReconciliation(c *gin.Context) {
	rows, err := s.services.GenerateSupplierReconciliation(reportOptions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// customerReconciliation GET /api/reports/customer-reconciliation?name=&start=&end=
func (s *Server) customerReconciliation(c *gin.Context) {
	rows, err := s.services.GenerateCustomerReconciliation(reportOptions(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
