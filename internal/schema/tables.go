package schema

import "regexp"

// iso8601UTC matches the export's timestamp format, e.g. 2024-03-01T12:30:00Z.
var iso8601UTC = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`)

// Products describes the product inventory extract. The export process
// writes it as inventory.csv rather than products.csv.
var Products = Table{
	Name:   "products",
	Source: "inventory.csv",
	Columns: []Column{
		{Name: "productid", Type: TypeString, Unique: true},
		{Name: "name", Type: TypeString},
		{Name: "quantity", Type: TypeInteger},
		{Name: "category", Type: TypeString},
		{Name: "subcategory", Type: TypeString},
	},
}

// Orders describes the order extract.
var Orders = Table{
	Name: "orders",
	Columns: []Column{
		{Name: "orderid", Type: TypeString, Unique: true},
		{Name: "productid", Type: TypeString},
		{Name: "currency", Type: TypeString},
		{Name: "quantity", Type: TypeInteger},
		{Name: "shippingcost", Type: TypeFloat},
		{Name: "amount", Type: TypeFloat},
		{Name: "channel", Type: TypeString},
		{Name: "channelgroup", Type: TypeString},
		{Name: "campaign", Type: TypeString, Nullable: true},
		{Name: "datetime", Type: TypeTimestamp, Pattern: iso8601UTC},
	},
}

// Tables returns the descriptors for every entity the pipeline
// reconciles, in processing order.
func Tables() []Table {
	return []Table{Products, Orders}
}
