// imsviewer 进销存数据工具：Excel 解析、数据库导入、查询与报表。
// 每次执行向标准输出打印单个 JSON 对象，失败时输出 {"error": ...}
// 并以非零码退出；日志走标准错误。
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ywfhighlo/ims-viewer-sub001/internal/codes"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/config"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/dict"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/docstore"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/etl"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/importer"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/model"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/parser"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/server"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/service"
	"github.com/ywfhighlo/ims-viewer-sub001/internal/util"
)

// Command 顶层命令
type Command string

const (
	CmdParse             Command = "parse"
	CmdImport            Command = "import"
	CmdQuery             Command = "query"
	CmdSupplier          Command = "supplier"
	CmdCustomer          Command = "customer"
	CmdMaterial          Command = "material"
	CmdAssignSupplierCds Command = "assign-supplier-codes"
	CmdListSupplierCds   Command = "list-supplier-codes"
	CmdReport            Command = "report"
	CmdServe             Command = "serve"
)

// EntityAction 实体子命令
type EntityAction string

const (
	ActionList        EntityAction = "list"
	ActionAdd         EntityAction = "add"
	ActionUpdate      EntityAction = "update"
	ActionDelete      EntityAction = "delete"
	ActionBatchDelete EntityAction = "batch-delete"
)

var entityTables = map[Command]string{
	CmdSupplier: model.TableSuppliers,
	CmdCustomer: model.TableCustomers,
	CmdMaterial: model.TableMaterials,
}

func main() {
	log.SetOutput(os.Stderr)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fail(fmt.Errorf("usage: imsviewer <command> [flags], commands: parse import query supplier customer material assign-supplier-codes list-supplier-codes report serve"))
	}

	out, err := run(Command(os.Args[1]), os.Args[2:])
	if err != nil {
		fail(err)
	}
	if out != nil {
		emit(out)
	}
}

// emit 向标准输出打印单个 JSON 对象
func emit(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail(fmt.Errorf("failed to encode output: %w", err))
	}
	fmt.Println(string(data))
}

func fail(err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	fmt.Println(string(data))
	os.Exit(1)
}

func run(cmd Command, args []string) (any, error) {
	cfg, info, err := config.LoadConfigWithInfo(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	switch cmd {
	case CmdParse:
		return runParse(cfg, args)
	case CmdImport:
		return runImport(cfg, args)
	case CmdQuery:
		return runQuery(cfg, args)
	case CmdSupplier, CmdCustomer, CmdMaterial:
		return runEntity(cfg, cmd, args)
	case CmdAssignSupplierCds:
		return runAssignSupplierCodes(cfg)
	case CmdListSupplierCds:
		return runListSupplierCodes(cfg)
	case CmdReport:
		return runReport(cfg, args)
	case CmdServe:
		return nil, runServe(cfg, info, args)
	default:
		return nil, fmt.Errorf("unknown command %q", string(cmd))
	}
}

func openStore(cfg *config.AppConfig) (*docstore.Store, error) {
	store, err := docstore.Open(cfg.DatabaseFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DatabaseFile(), err)
	}
	return store, nil
}

func openServices(cfg *config.AppConfig) (*service.Services, func(), error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	d, err := dict.Load()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return service.New(store, d), func() { store.Close() }, nil
}

func runParse(cfg *config.AppConfig, args []string) (any, error) {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	excel := fs.String("excel", "", "Excel 工作簿路径")
	out := fs.String("out", "", "JSON 输出目录（默认取配置的输出目录）")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *excel == "" {
		return nil, fmt.Errorf("parse requires --excel <path>")
	}

	outDir := *out
	if outDir == "" {
		outDir = cfg.ResolvedOutputDir()
	}

	d, err := dict.Load()
	if err != nil {
		return nil, err
	}

	// 数据库已存在时启用物料目录回填，否则跳过
	var catalog parser.Catalog
	if _, statErr := os.Stat(cfg.DatabaseFile()); statErr == nil {
		store, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		catalog = etl.NewStoreCatalog(store)
	}

	orch := etl.New(d, catalog)
	result, err := orch.ParseWorkbook(*excel)
	if err != nil {
		return nil, err
	}

	saved, err := orch.SaveAll(result, filepath.Join(outDir, "combined_data.json"))
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":       true,
		"total_records": result.TotalRecords,
		"failed_tables": result.FailedTables,
		"saved_files":   saved,
	}, nil
}

func runImport(cfg *config.AppConfig, args []string) (any, error) {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dataDir := fs.String("data", "", "分表 JSON 所在目录")
	mapping := fs.String("mapping", "", "标准编码映射文件（可选）")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *dataDir == "" {
		return nil, fmt.Errorf("import requires --data <dir>")
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	d, err := dict.Load()
	if err != nil {
		return nil, err
	}

	im := importer.New(store, d)
	if *mapping != "" {
		codeMap, err := importer.LoadStandardCodeMapping(*mapping)
		if err != nil {
			return nil, err
		}
		im.SetStandardCodeMapping(codeMap)
	}

	reports, err := im.ImportDir(*dataDir)
	if err != nil {
		return nil, err
	}

	success := true
	for _, r := range reports {
		if !r.Success {
			success = false
			break
		}
	}
	return map[string]any{
		"success": success,
		"tables":  reports,
	}, nil
}

func runQuery(cfg *config.AppConfig, args []string) (any, error) {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	table := fs.String("table", "", "表名")
	limit := fs.Int("limit", 100, "返回条数上限")
	materials := fs.Bool("materials", false, "输出物料下拉视图")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	svc, closeFn, err := openServices(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if *materials {
		views, err := svc.MaterialsForView()
		if err != nil {
			return nil, err
		}
		return map[string]any{"data": views}, nil
	}
	if *table == "" {
		return nil, fmt.Errorf("query requires --table <name> or --materials")
	}
	return svc.QueryTable(*table, *limit)
}

func runEntity(cfg *config.AppConfig, cmd Command, args []string) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%s requires an action: list add update delete batch-delete", string(cmd))
	}
	action := EntityAction(args[0])
	table := entityTables[cmd]

	fs := flag.NewFlagSet(string(cmd)+" "+string(action), flag.ContinueOnError)
	page := fs.Int("page", 1, "页码")
	limit := fs.Int("limit", 10, "每页条数")
	search := fs.String("search", "", "模糊检索关键字")
	sortBy := fs.String("sort", "", "排序字段")
	sortDesc := fs.Bool("desc", false, "降序排序")
	data := fs.String("data", "", "JSON 数据")
	id := fs.String("id", "", "记录 _id")
	ids := fs.String("ids", "", "JSON 编码的 _id 列表")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	svc, closeFn, err := openServices(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	switch action {
	case ActionList:
		return svc.ListEntities(table, *page, *limit, *search, *sortBy, *sortDesc)
	case ActionAdd:
		if *data == "" {
			return nil, fmt.Errorf("add requires --data <json>")
		}
		// 物料走编码组合路径，供应商/客户直接入库
		if cmd == CmdMaterial {
			var input service.MaterialInput
			if err := json.Unmarshal([]byte(*data), &input); err != nil {
				return nil, fmt.Errorf("failed to parse --data: %w", err)
			}
			return svc.AddMaterial(input)
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(*data), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse --data: %w", err)
		}
		return svc.AddEntity(table, rec)
	case ActionUpdate:
		if *id == "" || *data == "" {
			return nil, fmt.Errorf("update requires --id and --data")
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(*data), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse --data: %w", err)
		}
		return svc.UpdateEntity(table, *id, rec)
	case ActionDelete:
		if *id == "" {
			return nil, fmt.Errorf("delete requires --id")
		}
		return svc.DeleteEntity(table, *id)
	case ActionBatchDelete:
		if *ids == "" {
			return nil, fmt.Errorf("batch-delete requires --ids <json>")
		}
		var idList []string
		if err := json.Unmarshal([]byte(*ids), &idList); err != nil {
			return nil, fmt.Errorf("failed to parse --ids: %w", err)
		}
		return svc.BatchDeleteEntities(table, idList)
	default:
		return nil, fmt.Errorf("unknown action %q for %s", string(action), string(cmd))
	}
}

func runAssignSupplierCodes(cfg *config.AppConfig) (any, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return codes.AssignSupplierCodes(store)
}

func runListSupplierCodes(cfg *config.AppConfig) (any, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	list, err := codes.ListSupplierCodes(store)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": list}, nil
}

func runReport(cfg *config.AppConfig, args []string) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("report requires a type: receivables payables inventory supplier-reconciliation customer-reconciliation")
	}
	kind := strings.ToLower(args[0])

	fs := flag.NewFlagSet("report "+kind, flag.ContinueOnError)
	name := fs.String("name", "", "按客户/供应商/物料名称过滤")
	start := fs.String("start", "", "起始日期 YYYY-MM-DD")
	end := fs.String("end", "", "结束日期 YYYY-MM-DD")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	svc, closeFn, err := openServices(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	opts := service.ReportOptions{
		CounterpartyName: *name,
		StartDate:        *start,
		EndDate:          *end,
	}
	switch kind {
	case "receivables":
		return svc.GenerateReceivablesReport(opts)
	case "payables":
		return svc.GeneratePayablesReport(opts)
	case "inventory":
		report, err := svc.GenerateInventoryReport(*name)
		if err != nil {
			return nil, err
		}
		return report, nil
	case "supplier-reconciliation":
		rows, err := svc.GenerateSupplierReconciliation(opts)
		if err != nil {
			return nil, err
		}
		return map[string]any{"data": rows}, nil
	case "customer-reconciliation":
		rows, err := svc.GenerateCustomerReconciliation(opts)
		if err != nil {
			return nil, err
		}
		return map[string]any{"data": rows}, nil
	default:
		return nil, fmt.Errorf("unknown report type %q", kind)
	}
}

func runServe(cfg *config.AppConfig, info config.LoadConfigInfo, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", 0, "服务端口 (config.toml 显式配置时以其为准)")
	devMode := fs.Bool("dev", false, "开发模式")
	openBrowser := fs.Bool("open", false, "启动后打开浏览器")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}

	if _, err := config.EnsureDataDir(cfg); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	svc, closeFn, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	srv := server.New(svc, cfg.Server.DevMode)
	log.Printf("服务启动中，监听端口 %d ...", cfg.Server.Port)
	if *openBrowser {
		url := fmt.Sprintf("http://localhost:%d/api/status", cfg.Server.Port)
		go func() {
			if err := util.OpenBrowser(url); err != nil {
				log.Printf("无法自动打开浏览器，请手动访问: %s", url)
			}
		}()
	}
	return srv.Run(cfg.Server.Port)
}
