package dict

import (
	"log"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// Translator 按词典把中文键记录翻译为英文键记录
type Translator struct {
	dict *Dictionary
}

// NewTranslator 创建字段翻译器
func NewTranslator(d *Dictionary) *Translator {
	return &Translator{dict: d}
}

// Translate 翻译单条记录的键
// 词典未命中的键原样保留并记录告警，值一律不变；不发明也不丢弃任何键。
func (t *Translator) Translate(record model.Record) model.Record {
	out := make(model.Record, len(record))
	for chinese, value := range record {
		if english := t.dict.EnglishField(chinese); english != "" {
			out[english] = value
		} else {
			out[chinese] = value
			log.Printf("警告: 未找到字段 '%s' 的英文映射", chinese)
		}
	}
	return out
}

// TranslateMany 逐条翻译记录列表，保持顺序
func (t *Translator) TranslateMany(records []model.Record) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		out = append(out, t.Translate(r))
	}
	return out
}
