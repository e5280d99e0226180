package model

// 业务表名（与数据库集合同名）
const (
	TableSuppliers       = "suppliers"
	TableCustomers       = "customers"
	TableMaterials       = "materials"
	TablePurchaseParams  = "purchase_params"
	TablePurchaseInbound = "purchase_inbound"
	TableSalesOutbound   = "sales_outbound"
	TablePaymentDetails  = "payment_details"
	TableReceiptDetails  = "receipt_details"
	TableInventoryStats  = "inventory_stats"
)

// TableOrder 一次完整解析/导入中各表的固定处理顺序
var TableOrder = []string{
	TableSuppliers,
	TableCustomers,
	TablePurchaseParams,
	TablePurchaseInbound,
	TableSalesOutbound,
	TablePaymentDetails,
	TableReceiptDetails,
	TableInventoryStats,
}

// SheetNames 各业务表在工作簿中的固定 Sheet 名
var SheetNames = map[string]string{
	TableSuppliers:       "供应商信息表",
	TableCustomers:       "客户信息表",
	TablePurchaseParams:  "进货参数表",
	TablePurchaseInbound: "进货入库明细表",
	TableSalesOutbound:   "销售出库明细表",
	TablePaymentDetails:  "付款明细表",
	TableReceiptDetails:  "收款明细表",
	TableInventoryStats:  "库存统计表",
}
