package dict

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed dictionary.json
var dictionaryFS embed.FS

// FieldInfo 词典中单个字段的描述
type FieldInfo struct {
	English     string `json:"english"`
	DataType    string `json:"data_type"` // string / number / date
	Category    string `json:"category"`
	Description string `json:"description"`
}

// IndexSpec 表的二级索引定义
type IndexSpec struct {
	Fields []string `json:"fields"`
	Unique bool     `json:"unique"`
}

// TableSchema 单个业务表的结构定义
type TableSchema struct {
	ChineseName string      `json:"chinese_name"`
	Fields      []string    `json:"fields"` // 中文字段名，与 Sheet 列一致
	DateFields  []string    `json:"date_fields"`
	RequiredAny []string    `json:"required_any"` // 至少一个非空的英文字段
	Indexes     []IndexSpec `json:"indexes"`
}

// Dictionary 中英文字段映射词典
// 解析、导入、查询共用的唯一数据源，进程启动时构建一次后只读。
type Dictionary struct {
	Metadata struct {
		Version     string `json:"version"`
		Description string `json:"description"`
	} `json:"metadata"`
	Categories map[string]string      `json:"categories"`
	Fields     map[string]FieldInfo   `json:"field_dictionary"`
	Tables     map[string]TableSchema `json:"table_schemas"`

	reverse map[string]string // english -> chinese
}

// Load 加载内置词典
func Load() (*Dictionary, error) {
	data, err := dictionaryFS.ReadFile("dictionary.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded dictionary: %w", err)
	}
	return parse(data)
}

// LoadFile 从外部文件加载词典（覆盖内置词典时使用）
// 词典缺失或格式错误属于配置错误，直接失败。
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("字段映射词典文件不存在: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Dictionary, error) {
	d := &Dictionary{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("字段映射词典文件格式错误: %w", err)
	}

	d.reverse = make(map[string]string, len(d.Fields))
	for chinese, info := range d.Fields {
		d.reverse[info.English] = chinese
	}

	return d, nil
}

// Version 词典版本号
func (d *Dictionary) Version() string {
	if d.Metadata.Version == "" {
		return "unknown"
	}
	return d.Metadata.Version
}

// EnglishField 中文字段名对应的英文字段名，未命中返回空串
func (d *Dictionary) EnglishField(chinese string) string {
	return d.Fields[chinese].English
}

// ChineseField 英文字段名对应的中文字段名，未命中返回空串
func (d *Dictionary) ChineseField(english string) string {
	return d.reverse[english]
}

// FieldInfo 中文字段名的完整描述
func (d *Dictionary) FieldInfo(chinese string) (FieldInfo, bool) {
	info, ok := d.Fields[chinese]
	return info, ok
}

// TableSchema 业务表的结构定义
func (d *Dictionary) TableSchema(table string) (TableSchema, bool) {
	schema, ok := d.Tables[table]
	return schema, ok
}

// TableChineseFields 表的中文字段列表
func (d *Dictionary) TableChineseFields(table string) []string {
	return d.Tables[table].Fields
}

// TableEnglishFields 表的英文字段列表（按词典翻译，未命中的跳过）
func (d *Dictionary) TableEnglishFields(table string) []string {
	schema, ok := d.Tables[table]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(schema.Fields))
	for _, chinese := range schema.Fields {
		if english := d.EnglishField(chinese); english != "" {
			out = append(out, english)
		}
	}
	return out
}

// ValidateFields 检查字段名是否在词典中，返回（命中，未命中）
func (d *Dictionary) ValidateFields(fields []string) (valid, invalid []string) {
	for _, f := range fields {
		if _, ok := d.Fields[f]; ok {
			valid = append(valid, f)
		} else {
			invalid = append(invalid, f)
		}
	}
	return valid, invalid
}
