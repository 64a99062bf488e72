// Package columns picks one source column per semantic role out of a
// loosely named, possibly duplicated header row.
//
// Selection is driven by an ordered rule table rather than ad hoc checks:
// each Rule lists predicate tiers that are tried in order, and a Pick
// strategy that chooses among the columns matching the first non-empty tier.
package columns

import (
	"strings"

	"github.com/andresuchdata/autotransfer/backend-go/internal/domain"
)

// Matcher reports whether a folded (trimmed, upper-cased) column name qualifies.
type Matcher func(folded string) bool

// Contains matches names containing token.
func Contains(token string) Matcher {
	token = fold(token)
	return func(name string) bool { return strings.Contains(name, token) }
}

// Equals matches names equal to token.
func Equals(token string) Matcher {
	token = fold(token)
	return func(name string) bool { return name == token }
}

// AnyOf matches when at least one matcher does.
func AnyOf(ms ...Matcher) Matcher {
	return func(name string) bool {
		for _, m := range ms {
			if m(name) {
				return true
			}
		}
		return false
	}
}

// AllOf matches when every matcher does.
func AllOf(ms ...Matcher) Matcher {
	return func(name string) bool {
		for _, m := range ms {
			if !m(name) {
				return false
			}
		}
		return true
	}
}

// Not inverts a matcher.
func Not(m Matcher) Matcher {
	return func(name string) bool { return !m(name) }
}

// Pick chooses one column among the candidates of a tier
type Pick int

const (
	// PickFirst takes the earliest candidate in header order.
	PickFirst Pick = iota
	// PickShortest takes the candidate with the shortest name, earliest on ties.
	PickShortest
)

// Rule describes how one role is resolved
type Rule struct {
	Role      domain.Role
	Canonical string
	Tiers     []Matcher
	Pick      Pick
	Optional  bool
}

// RuleSet is resolved in order; the order also fixes the canonical column order.
type RuleSet []Rule

// Canonical column names produced by the inventory and plan rules.
const (
	ColSKU       = "SKU"
	ColFNSKU     = "FNSKU"
	ColWarehouse = "Warehouse"
	ColStock     = "Stock"
	ColZone      = "Zone"
	ColPlanQty   = "PlanQty"
	ColDemandQty = "Qty"
	ColTag       = "Tag"
)

// InventoryRules resolves WMS stock exports.
var InventoryRules = RuleSet{
	{
		Role:      domain.RoleSubID,
		Canonical: ColFNSKU,
		Tiers:     []Matcher{Contains("FNSKU")},
	},
	{
		Role:      domain.RoleParentID,
		Canonical: ColSKU,
		Tiers:     []Matcher{AllOf(Contains("SKU"), Not(Contains("FNSKU")))},
		Pick:      PickShortest,
	},
	{
		Role:      domain.RoleLocation,
		Canonical: ColWarehouse,
		Tiers:     []Matcher{Contains("仓库")},
	},
	{
		Role:      domain.RoleQuantity,
		Canonical: ColStock,
		Tiers: []Matcher{
			Contains("可用"),
			AllOf(Contains("库存"), Not(Contains("主体")), Not(Contains("忽略"))),
		},
	},
	{
		Role:      domain.RoleZone,
		Canonical: ColZone,
		Tiers:     []Matcher{AllOf(Contains("库区"), Not(Contains("标记")))},
		Optional:  true,
	},
}

var planQuantity = AnyOf(Contains("需求"), Contains("QTY"))

// PlanRules resolves pickup plan tables. A column is claimed by FNSKU first,
// then by the quantity markers, and only then by SKU.
var PlanRules = RuleSet{
	{
		Role:      domain.RoleParentID,
		Canonical: ColSKU,
		Tiers:     []Matcher{AllOf(Contains("SKU"), Not(Contains("FNSKU")), Not(planQuantity))},
	},
	{
		Role:      domain.RoleSubID,
		Canonical: ColFNSKU,
		Tiers:     []Matcher{Contains("FNSKU")},
		Optional:  true,
	},
	{
		Role:      domain.RolePlanQuantity,
		Canonical: ColPlanQty,
		Tiers:     []Matcher{AllOf(planQuantity, Not(Contains("FNSKU")))},
	},
}

// DemandRules resolves demand sheets pasted from the order planning workbook.
var DemandRules = RuleSet{
	{
		Role:      domain.RoleParentID,
		Canonical: ColSKU,
		Tiers:     []Matcher{Equals("SKU")},
	},
	{
		Role:      domain.RoleSubID,
		Canonical: ColFNSKU,
		Tiers:     []Matcher{Equals("FNSKU")},
		Optional:  true,
	},
	{
		Role:      domain.RoleQuantity,
		Canonical: ColDemandQty,
		Tiers:     []Matcher{Equals("订单需求"), planQuantity},
	},
	{
		Role:      domain.RoleTag,
		Canonical: ColTag,
		Tiers:     []Matcher{AnyOf(Contains("国家"), Contains("COUNTRY"), Contains("站点"))},
		Optional:  true,
	},
}

func fold(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
