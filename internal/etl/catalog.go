package etl

import (
	"errors"
	"log"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// StoreCatalog 物料目录的数据库实现，按 materials 集合逐条点查
type StoreCatalog struct {
	store *docstore.Store
}

// NewStoreCatalog 创建数据库物料目录
func NewStoreCatalog(store *docstore.Store) *StoreCatalog {
	return &StoreCatalog{store: store}
}

// MaterialCodeByNameModel 按 (物料名称, 规格型号) 精确匹配查找编码
func (c *StoreCatalog) MaterialCodeByNameModel(name, mdl string) (string, bool) {
	rec, err := c.store.FindOne(model.TableMaterials, map[string]any{
		"material_name":  name,
		"material_model": mdl,
	})
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			log.Printf("查询物料目录失败: %v", err)
		}
		return "", false
	}
	code, _ := rec["material_code"].(string)
	if code == "" {
		return "", false
	}
	return code, true
}

// MaterialCodeExists 判断编码是否已在目录中定义
func (c *StoreCatalog) MaterialCodeExists(code string) bool {
	n, err := c.store.Count(model.TableMaterials, docstore.Query{
		Filter: map[string]any{"material_code": code},
	})
	if err != nil {
		log.Printf("查询物料目录失败: %v", err)
		return false
	}
	return n > 0
}
