package model

import (
	"encoding/json"
	"time"
)

// Supplier 供应商档案
type Supplier struct {
	ID            string     `json:"_id,omitempty"`
	SupplierName  string     `json:"supplier_name"`
	SupplierCode  string     `json:"supplier_code,omitempty"` // 01-99，可能未分配
	ContactPerson string     `json:"contact_person,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Address       string     `json:"address,omitempty"`
	TaxNumber     string     `json:"tax_number,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Customer 客户档案
type Customer struct {
	ID            string     `json:"_id,omitempty"`
	CustomerName  string     `json:"customer_name"`
	CustomerCode  string     `json:"customer_code,omitempty"`
	ContactPerson string     `json:"contact_person,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Address       string     `json:"address,omitempty"`
	TaxNumber     string     `json:"tax_number,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Material 物料档案
// 编码为 平台-类型-供应商-0000-序号 的五段结构，供应商名称/编码为冗余字段，
// 不做外键约束。
type Material struct {
	ID               string     `json:"_id,omitempty"`
	MaterialCode     string     `json:"material_code"`
	Sequence         int        `json:"sequence,omitempty"`
	Platform         string     `json:"platform,omitempty"`
	Type1            string     `json:"type1,omitempty"`
	Type2            string     `json:"type2,omitempty"`
	SupplierCode     string     `json:"supplier_code,omitempty"`
	SupplierID       string     `json:"supplier_id,omitempty"`
	SupplierName     string     `json:"supplier_name,omitempty"`
	MaterialName     string     `json:"material_name"`
	MaterialModel    string     `json:"material_model,omitempty"`
	HardwarePlatform string     `json:"hardware_platform,omitempty"`
	Unit             string     `json:"unit,omitempty"`
	Status           string     `json:"status,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// decodeRecord 通过 JSON 往返把文档记录解码为实体结构
// 文档里的日期为 RFC3339 字符串，可直接落到 *time.Time 字段。
func decodeRecord(rec Record, out any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// SupplierFromRecord 把供应商文档解码为结构体
func SupplierFromRecord(rec Record) (Supplier, error) {
	var s Supplier
	err := decodeRecord(rec, &s)
	return s, err
}

// CustomerFromRecord 把客户文档解码为结构体
func CustomerFromRecord(rec Record) (Customer, error) {
	var c Customer
	err := decodeRecord(rec, &c)
	return c, err
}

// MaterialFromRecord 把物料文档解码为结构体
func MaterialFromRecord(rec Record) (Material, error) {
	var m Material
	err := decodeRecord(rec, &m)
	return m, err
}

// ToRecord 把物料结构体编码为可入库的文档记录
func (m Material) ToRecord() (Record, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
