package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/codes"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// MaterialInput 新增物料的输入
type MaterialInput struct {
	Platform         string `json:"platform"`      // P=采购 / R=自研，默认 P
	Type1            string `json:"type1"`         // 一位数字分类码，默认 0
	Type2            string `json:"type2"`         // 一位数字分类码，默认 0
	SupplierCode     string `json:"supplier_code"` // 默认 01，供应商记录有编码时以其为准
	SupplierName     string `json:"supplier_name"`
	MaterialName     string `json:"material_name"`
	MaterialModel    string `json:"material_model"`
	HardwarePlatform string `json:"hardware_platform"`
	Unit             string `json:"unit"`
}

// AddMaterialResult 新增物料结果
type AddMaterialResult struct {
	Success      bool   `json:"success"`
	InsertedID   string `json:"inserted_id"`
	MaterialCode string `json:"material_code"`
	Sequence     int    `json:"sequence"`
}

// AddMaterial 走编码生成路径新增物料
// 先按供应商名称解析编码（记录里有编码时覆盖输入），再组装物料编码，
// 编码重复视为调用方错误。
func (s *Services) AddMaterial(input MaterialInput) (*AddMaterialResult, error) {
	if input.MaterialName == "" {
		return nil, fmt.Errorf("%w: material_name is required", ErrInvalidInput)
	}
	if input.Platform == "" {
		input.Platform = "P"
	}
	input.Platform = strings.ToUpper(input.Platform)
	if input.Type1 == "" {
		input.Type1 = "0"
	}
	if input.Type2 == "" {
		input.Type2 = "0"
	}
	if input.SupplierCode == "" {
		input.SupplierCode = "01"
	}
	if input.Unit == "" {
		input.Unit = "个"
	}

	var supplierID string
	if input.SupplierName != "" {
		supplier, err := s.store.FindOne(model.TableSuppliers, map[string]any{"supplier_name": input.SupplierName})
		switch {
		case err == nil:
			supplierID = supplier.GetString("_id")
			if code := supplier.GetString("supplier_code"); code != "" {
				input.SupplierCode = code
			}
		case errors.Is(err, docstore.ErrNotFound):
			log.Printf("警告: 供应商 '%s' 不存在于数据库中", input.SupplierName)
		default:
			return nil, fmt.Errorf("failed to resolve supplier: %w", err)
		}
	}

	materialCode, sequence, err := codes.GenerateMaterialCode(
		s.store, input.Platform, input.Type1, input.Type2, input.SupplierCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.store.FindOne(model.TableMaterials, map[string]any{"material_code": materialCode}); err == nil {
		return nil, fmt.Errorf("%w: 物料编码 %s 已存在", ErrInvalidInput, materialCode)
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("failed to check material code: %w", err)
	}

	now := time.Now()
	material := model.Material{
		MaterialCode:     materialCode,
		Sequence:         sequence,
		Platform:         input.Platform,
		Type1:            input.Type1,
		Type2:            input.Type2,
		SupplierCode:     input.SupplierCode,
		SupplierID:       supplierID,
		SupplierName:     input.SupplierName,
		MaterialName:     input.MaterialName,
		MaterialModel:    input.MaterialModel,
		HardwarePlatform: input.HardwarePlatform,
		Unit:             input.Unit,
		Status:           "active",
		CreatedAt:        &now,
		UpdatedAt:        &now,
	}
	doc, err := material.ToRecord()
	if err != nil {
		return nil, fmt.Errorf("failed to encode material: %w", err)
	}
	if err := s.store.InsertMany(model.TableMaterials, []model.Record{doc}); err != nil {
		return nil, fmt.Errorf("failed to insert material: %w", err)
	}

	log.Printf("物料添加成功: %s", materialCode)
	return &AddMaterialResult{
		Success:      true,
		InsertedID:   doc.GetString("_id"),
		MaterialCode: materialCode,
		Sequence:     sequence,
	}, nil
}
