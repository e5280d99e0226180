package etl

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// tableDocument 单表 JSON 文件结构
type tableDocument struct {
	Metadata tableMetadata  `json:"metadata"`
	Data     []model.Record `json:"data"`
}

type tableMetadata struct {
	TableName         string `json:"table_name"`
	TableChineseName  string `json:"table_chinese_name,omitempty"`
	Source            string `json:"source"`
	GeneratedAt       string `json:"generated_at"`
	TotalRecords      int    `json:"total_records"`
	FieldMapping      any    `json:"field_mapping,omitempty"`
	DictionaryVersion string `json:"dictionary_version,omitempty"`
}

// combinedDocument 汇总 JSON 文件结构
type combinedDocument struct {
	Metadata combinedMetadata          `json:"metadata"`
	Data     map[string][]model.Record `json:"data"`
}

type combinedMetadata struct {
	GeneratedAt  string   `json:"generated_at"`
	TotalTables  int      `json:"total_tables"`
	TotalRecords int      `json:"total_records"`
	FailedTables []string `json:"failed_tables,omitempty"`
	Version      string   `json:"version"`
}

// SaveAll 保存汇总文件、各表文件与派生物料文件
// outputFile 为汇总文件路径，分表文件写入其所在目录。返回写出的文件列表。
func (o *Orchestrator) SaveAll(result *Result, outputFile string) ([]string, error) {
	outDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	combined := combinedDocument{
		Metadata: combinedMetadata{
			GeneratedAt:  now,
			TotalTables:  len(result.Tables),
			TotalRecords: result.TotalRecords,
			FailedTables: result.FailedTables,
			Version:      o.dict.Version(),
		},
		Data: result.Tables,
	}
	if err := writeJSON(outputFile, combined); err != nil {
		return nil, err
	}
	saved := []string{outputFile}
	log.Printf("主数据文件保存成功: %s (%d 表, %d 条记录)",
		outputFile, len(result.Tables), result.TotalRecords)

	for _, table := range model.TableOrder {
		records := result.Tables[table]
		if len(records) == 0 {
			continue
		}
		doc := tableDocument{
			Metadata: tableMetadata{
				TableName:         table,
				Source:            "excel_sheet",
				GeneratedAt:       now,
				TotalRecords:      len(records),
				DictionaryVersion: o.dict.Version(),
			},
			Data: records,
		}
		if schema, ok := o.dict.TableSchema(table); ok {
			doc.Metadata.TableChineseName = schema.ChineseName
			doc.Metadata.FieldMapping = schema
		}
		path := filepath.Join(outDir, table+".json")
		if err := writeJSON(path, doc); err != nil {
			return saved, err
		}
		saved = append(saved, path)
	}

	if materials := ExtractMaterials(result.Tables); len(materials) > 0 {
		doc := tableDocument{
			Metadata: tableMetadata{
				TableName:         model.TableMaterials,
				Source:            "excel_extraction",
				GeneratedAt:       now,
				TotalRecords:      len(materials),
				DictionaryVersion: o.dict.Version(),
			},
			Data: materials,
		}
		path := filepath.Join(outDir, model.TableMaterials+".json")
		if err := writeJSON(path, doc); err != nil {
			return saved, err
		}
		saved = append(saved, path)
	}

	log.Printf("分表文件保存完成: 共 %d 个文件", len(saved))
	return saved, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
