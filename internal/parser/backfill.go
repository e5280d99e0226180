package parser

import (
	"log"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// backfillMaterialCodes 为缺少物料编码的明细记录回填目录编码
// 记录自带编码时仅校验其在目录中存在；否则按 (物料名称, 规格型号)
// 精确匹配目录，命中则复制编码，未命中只告警、不阻断。
// 逐条点查，表规模在千行以内时可接受。
func (p *Parser) backfillMaterialCodes(records []model.Record) {
	matched, missing := 0, 0
	for _, rec := range records {
		code := rec.GetString("material_code")
		if code != "" {
			if !p.catalog.MaterialCodeExists(code) {
				log.Printf("警告: 表格提供的物料编码在目录中不存在: %s", code)
			}
			continue
		}

		name := rec.GetString("material_name")
		spec := rec.GetString("specification")
		if name == "" || spec == "" {
			continue
		}

		if found, ok := p.catalog.MaterialCodeByNameModel(name, spec); ok {
			rec["material_code"] = found
			matched++
		} else {
			missing++
			log.Printf("警告: 物料未在目录中定义，无法匹配编码: %s / %s", name, spec)
		}
	}
	if matched > 0 || missing > 0 {
		log.Printf("物料编码回填完成: 命中 %d, 未命中 %d", matched, missing)
	}
}
