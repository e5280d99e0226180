// Package codes 供应商编码分配与物料编码生成。
package codes

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// maxSupplierCode 供应商编码区间为 01-99
const maxSupplierCode = 99

// GenerateMaterialCode 生成下一个物料编码
// 格式 {平台}-{类型1}{类型2}-{供应商编码:2位}-0000-{序号:3位}，
// 序号在前四段组成的前缀内自增，从 1 开始。
// platform: P=采购 / R=自研；type1、type2 为一位数字分类码。
func GenerateMaterialCode(store *docstore.Store, platform, type1, type2, supplierCode string) (string, int, error) {
	platform = strings.ToUpper(strings.TrimSpace(platform))
	if platform != "P" && platform != "R" {
		return "", 0, fmt.Errorf("invalid platform %q: must be P or R", platform)
	}
	if !isDigit(type1) {
		return "", 0, fmt.Errorf("invalid type1 %q: must be a single digit", type1)
	}
	if !isDigit(type2) {
		return "", 0, fmt.Errorf("invalid type2 %q: must be a single digit", type2)
	}
	sc, err := strconv.Atoi(strings.TrimSpace(supplierCode))
	if err != nil || sc < 1 || sc > maxSupplierCode {
		return "", 0, fmt.Errorf("invalid supplier code %q: must be 01-99", supplierCode)
	}

	prefix := fmt.Sprintf("%s-%s%s-%02d-0000", platform, type1, type2, sc)
	maxSeq, err := store.MaxSequenceForPrefix(model.TableMaterials, "material_code", prefix+"-")
	if err != nil {
		return "", 0, fmt.Errorf("failed to scan existing codes: %w", err)
	}

	sequence := maxSeq + 1
	return fmt.Sprintf("%s-%03d", prefix, sequence), sequence, nil
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

// Assignment 一条编码分配结果
type Assignment struct {
	SupplierCode string `json:"supplier_code"`
	SupplierName string `json:"supplier_name"`
}

// AssignResult 供应商编码分配汇总
type AssignResult struct {
	Assignments []Assignment `json:"assignments"`
	Updated     int          `json:"updated"`
	Skipped     int          `json:"skipped"` // 超出 99 上限未分配的数量
}

// AssignSupplierCodes 按名称排序为全部供应商重新分配编码 01-99
// 超过 99 个的供应商不分配编码，只告警。
func AssignSupplierCodes(store *docstore.Store) (*AssignResult, error) {
	suppliers, err := store.Find(model.TableSuppliers, docstore.Query{SortBy: "supplier_name"})
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	if len(suppliers) == 0 {
		return nil, fmt.Errorf("no suppliers found")
	}

	result := &AssignResult{}
	if len(suppliers) > maxSupplierCode {
		result.Skipped = len(suppliers) - maxSupplierCode
		log.Printf("警告: 供应商数量(%d)超过%d个，只为前%d个分配编码",
			len(suppliers), maxSupplierCode, maxSupplierCode)
		suppliers = suppliers[:maxSupplierCode]
	}

	for i, supplier := range suppliers {
		code := fmt.Sprintf("%02d", i+1)
		id := supplier.GetString("_id")
		if err := store.UpdateByID(model.TableSuppliers, id, map[string]any{"supplier_code": code}); err != nil {
			return nil, fmt.Errorf("failed to update supplier %s: %w", id, err)
		}
		result.Assignments = append(result.Assignments, Assignment{
			SupplierCode: code,
			SupplierName: supplier.GetString("supplier_name"),
		})
		result.Updated++
	}

	log.Printf("编码分配完成: 成功更新 %d 个供应商", result.Updated)
	return result, nil
}

// ListSupplierCodes 列出已分配编码的供应商，按编码升序
func ListSupplierCodes(store *docstore.Store) ([]Assignment, error) {
	suppliers, err := store.Find(model.TableSuppliers, docstore.Query{SortBy: "supplier_code"})
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}

	var list []Assignment
	for _, supplier := range suppliers {
		code := supplier.GetString("supplier_code")
		if code == "" {
			continue
		}
		list = append(list, Assignment{
			SupplierCode: code,
			SupplierName: supplier.GetString("supplier_name"),
		})
	}
	return list, nil
}
