package services

import "slices"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleB2B        Role = "b2b"
	RoleProduction Role = "production"
)

var AllRoles = []Role{RoleAdmin, RoleStaff, RoleB2B, RoleProduction}

// ParseRole returns the role and whether it is one of AllRoles.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, slices.Contains(AllRoles, r)
}

// Access keys name a group of routes; handlers are bound to one key each.
const (
	AccessDashboard     = "dashboard"
	AccessClients       = "clients"
	AccessClientsWrite  = "clients.write"
	AccessDies          = "dies"
	AccessDiesWrite     = "dies.write"
	AccessPapers        = "papers"
	AccessPapersWrite   = "papers.write"
	AccessOverheads     = "overheads"
	AccessRates         = "rates"
	AccessLoyalty       = "loyalty"
	AccessLoyaltyWrite  = "loyalty.write"
	AccessEstimates     = "estimates"
	AccessEstimatesEdit = "estimates.write"
	AccessOrders        = "orders"
	AccessOrderStage    = "orders.stage"
	AccessJobTickets    = "job_tickets"
	AccessInvoices      = "invoices"
	AccessInvoicesWrite = "invoices.write"
	AccessUsers         = "users"
	AccessNotifications = "notifications"
	AccessExports       = "exports"
)

var accessTable = map[string][]Role{
	AccessDashboard:     {RoleAdmin, RoleStaff, RoleB2B, RoleProduction},
	AccessClients:       {RoleAdmin, RoleStaff},
	AccessClientsWrite:  {RoleAdmin, RoleStaff},
	AccessDies:          {RoleAdmin, RoleStaff, RoleProduction},
	AccessDiesWrite:     {RoleAdmin, RoleStaff},
	AccessPapers:        {RoleAdmin, RoleStaff, RoleProduction},
	AccessPapersWrite:   {RoleAdmin},
	AccessOverheads:     {RoleAdmin},
	AccessRates:         {RoleAdmin},
	AccessLoyalty:       {RoleAdmin, RoleStaff, RoleB2B},
	AccessLoyaltyWrite:  {RoleAdmin},
	AccessEstimates:     {RoleAdmin, RoleStaff, RoleB2B},
	AccessEstimatesEdit: {RoleAdmin, RoleStaff, RoleB2B},
	AccessOrders:        {RoleAdmin, RoleStaff, RoleB2B, RoleProduction},
	AccessOrderStage:    {RoleAdmin, RoleStaff, RoleProduction},
	AccessJobTickets:    {RoleAdmin, RoleStaff, RoleProduction},
	AccessInvoices:      {RoleAdmin, RoleStaff, RoleB2B},
	AccessInvoicesWrite: {RoleAdmin, RoleStaff},
	AccessUsers:         {RoleAdmin},
	AccessNotifications: {RoleAdmin, RoleStaff, RoleB2B, RoleProduction},
	AccessExports:       {RoleAdmin, RoleStaff},
}

// CanAccess reports whether role may use the routes behind key.
// Unknown keys are denied.
func CanAccess(role Role, key string) bool {
	return slices.Contains(accessTable[key], role)
}

// RolesFor lists the roles allowed for key.
func RolesFor(key string) []Role {
	return slices.Clone(accessTable[key])
}

type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

var menu = []MenuItem{
	{AccessDashboard, "Dashboard", "/dashboard"},
	{AccessClients, "Clients", "/clients"},
	{AccessEstimates, "Estimates", "/estimates"},
	{AccessOrders, "Orders", "/orders"},
	{AccessJobTickets, "Job Tickets", "/job-tickets"},
	{AccessInvoices, "Invoices", "/invoices"},
	{AccessDies, "Dies", "/dies"},
	{AccessPapers, "Papers", "/papers"},
	{AccessOverheads, "Overheads", "/overheads"},
	{AccessRates, "Standard Rates", "/rates"},
	{AccessLoyalty, "Loyalty Tiers", "/loyalty-tiers"},
	{AccessUsers, "Users", "/users"},
}

// MenuFor returns the menu entries visible to role, in display order.
func MenuFor(role Role) []MenuItem {
	var items []MenuItem
	for _, m := range menu {
		if CanAccess(role, m.Key) {
			items = append(items, m)
		}
	}
	return items
}
