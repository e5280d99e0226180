// Package service 面向宿主扩展的业务操作层：实体增删改查、表查询与
// 应收/应付报表。所有方法返回可直接序列化为 JSON 的结果对象。
package service

import (
	"errors"
	"fmt"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// ErrNotFound 目标记录不存在
var ErrNotFound = docstore.ErrNotFound

// ErrInvalidInput 调用方参数错误，与存储层故障区分开
var ErrInvalidInput = errors.New("invalid input")

// entitySearchFields 各实体表模糊检索作用的字段
var entitySearchFields = map[string][]string{
	model.TableSuppliers: {"supplier_name", "contact_person", "phone"},
	model.TableCustomers: {"customer_name", "contact_person", "phone"},
	model.TableMaterials: {"material_code", "material_name", "material_model"},
}

// Services 业务操作入口
type Services struct {
	store *docstore.Store
	dict  *dict.Dictionary
}

// New 创建业务操作层
func New(store *docstore.Store, d *dict.Dictionary) *Services {
	return &Services{store: store, dict: d}
}

// Store 暴露底层存储（编码分配等跨层操作使用）
func (s *Services) Store() *docstore.Store {
	return s.store
}

func entityTable(table string) error {
	if _, ok := entitySearchFields[table]; !ok {
		return fmt.Errorf("%w: unsupported entity table %q", ErrInvalidInput, table)
	}
	return nil
}
