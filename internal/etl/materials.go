package etl

import (
	"log"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// materialSourceTables 物料提取的来源表，按优先级排列
var materialSourceTables = []string{
	model.TablePurchaseParams,
	model.TablePurchaseInbound,
	model.TableSalesOutbound,
}

// ExtractMaterials 从解析结果中提取去重后的物料清单
// 按来源表优先级扫描，每个编码只取首次出现的描述字段；
// 销售出库记录不含供应商，supplier_name 置空。
func ExtractMaterials(tables map[string][]model.Record) []model.Record {
	var materials []model.Record
	seen := make(map[string]struct{})

	for _, table := range materialSourceTables {
		for _, item := range tables[table] {
			code := item.GetString("material_code")
			if code == "" {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}

			supplier := item.GetString("supplier_name")
			if table == model.TableSalesOutbound {
				supplier = ""
			}
			unit := item.GetString("unit")
			if unit == "" {
				unit = "台"
			}

			material := model.Record{
				"material_code": code,
				"material_name": item.GetString("material_name"),
				"specification": item.GetString("specification"),
				"unit":          unit,
				"supplier_name": supplier,
				"source_table":  table,
			}
			if table == model.TablePurchaseParams {
				material["additional_info"] = map[string]any{
					"initial_quantity":      item["initial_quantity"],
					"safety_stock":          item["safety_stock"],
					"parameter_description": item.GetString("parameter_description"),
					"handler":               item.GetString("handler"),
				}
			} else {
				material["additional_info"] = map[string]any{
					"handler": item.GetString("handler"),
				}
			}
			materials = append(materials, material)
		}
	}

	log.Printf("物料信息提取完成: 共 %d 种物料", len(materials))
	return materials
}
