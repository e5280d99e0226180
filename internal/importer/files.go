package importer

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
)

// tableFile 分表 JSON 文件结构（只关心 data 部分）
type tableFile struct {
	Data []model.Record `json:"data"`
}

// combinedFile 汇总 JSON 文件结构
type combinedFile struct {
	Data map[string][]model.Record `json:"data"`
}

// ImportDir 导入目录下的全部分表文件
// 依固定表顺序查找 <table>.json（外加 materials.json），缺失的表跳过。
func (im *Importer) ImportDir(dir string) ([]TableReport, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("data directory not accessible: %w", err)
	}

	tables := append([]string{}, model.TableOrder...)
	tables = append(tables, model.TableMaterials)

	var reports []TableReport
	for _, table := range tables {
		path := filepath.Join(dir, table+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("跳过缺失的数据文件: %s", path)
				continue
			}
			reports = append(reports, TableReport{Table: table, Error: err.Error()})
			continue
		}

		var file tableFile
		if err := json.Unmarshal(raw, &file); err != nil {
			reports = append(reports, TableReport{
				Table: table,
				Error: fmt.Sprintf("invalid json: %v", err),
			})
			continue
		}
		reports = append(reports, im.ImportTable(table, file.Data))
	}

	if len(reports) == 0 {
		return nil, fmt.Errorf("no data files found in %s", dir)
	}
	logSummary(reports)
	return reports, nil
}

// ImportFile 导入一个汇总 JSON 文件（data 下按表名分组）
func (im *Importer) ImportFile(path string) ([]TableReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var file combinedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("no table data in %s", path)
	}

	var reports []TableReport
	for _, table := range model.TableOrder {
		records, ok := file.Data[table]
		if !ok {
			continue
		}
		reports = append(reports, im.ImportTable(table, records))
	}
	logSummary(reports)
	return reports, nil
}

func logSummary(reports []TableReport) {
	success, failed := 0, 0
	for _, r := range reports {
		if r.Success {
			success++
		} else {
			failed++
		}
	}
	log.Printf("数据导入完成: 成功 %d 表, 失败 %d 表", success, failed)
}
