package authz

// Capability is an opaque permission key shared between client and server.
// Keys are namespaced "<Domain>.<Action>" and form a closed enumeration;
// consumers never construct keys outside this list.
type Capability string

const (
	CapAcquisitionsView    Capability = "Acquisitions.View"
	CapAcquisitionsCreate  Capability = "Acquisitions.Create"
	CapAcquisitionsEdit    Capability = "Acquisitions.Edit"
	CapAcquisitionsReceive Capability = "Acquisitions.Receive"
	CapAcquisitionsProcess Capability = "Acquisitions.Process"
	CapAcquisitionsCancel  Capability = "Acquisitions.Cancel"

	CapOrdersView    Capability = "Orders.View"
	CapOrdersCreate  Capability = "Orders.Create"
	CapOrdersEdit    Capability = "Orders.Edit"
	CapOrdersSubmit  Capability = "Orders.Submit"
	CapOrdersProcess Capability = "Orders.Process"
	CapOrdersShip    Capability = "Orders.Ship"
	CapOrdersDeliver Capability = "Orders.Deliver"
	CapOrdersCancel  Capability = "Orders.Cancel"

	CapMaterialsView    Capability = "Materials.View"
	CapMaterialsCreate  Capability = "Materials.Create"
	CapMaterialsEdit    Capability = "Materials.Edit"
	CapMaterialsReserve Capability = "Materials.Reserve"
	CapMaterialsConsume Capability = "Materials.Consume"
	CapMaterialsArchive Capability = "Materials.Archive"

	CapProductionView     Capability = "Production.View"
	CapProductionCreate   Capability = "Production.Create"
	CapProductionEdit     Capability = "Production.Edit"
	CapProductionSchedule Capability = "Production.Schedule"
	CapProductionStart    Capability = "Production.Start"
	CapProductionComplete Capability = "Production.Complete"
	CapProductionCancel   Capability = "Production.Cancel"

	CapClientsView   Capability = "Clients.View"
	CapClientsCreate Capability = "Clients.Create"
	CapClientsEdit   Capability = "Clients.Edit"
	CapClientsDelete Capability = "Clients.Delete"

	CapSuppliersView   Capability = "Suppliers.View"
	CapSuppliersCreate Capability = "Suppliers.Create"
	CapSuppliersEdit   Capability = "Suppliers.Edit"
	CapSuppliersDelete Capability = "Suppliers.Delete"

	CapTransportsView   Capability = "Transports.View"
	CapTransportsCreate Capability = "Transports.Create"
	CapTransportsEdit   Capability = "Transports.Edit"
	CapTransportsDelete Capability = "Transports.Delete"

	CapUsersView   Capability = "Users.View"
	CapUsersCreate Capability = "Users.Create"
	CapUsersEdit   Capability = "Users.Edit"
	CapUsersDelete Capability = "Users.Delete"
)

// RoleAdmin grants every capability unconditionally.
const RoleAdmin = "Admin"

// AllCapabilities lists the closed capability enumeration. The seeder and the
// users administration screens use it to populate grant checklists.
func AllCapabilities() []Capability {
	return []Capability{
		CapAcquisitionsView, CapAcquisitionsCreate, CapAcquisitionsEdit,
		CapAcquisitionsReceive, CapAcquisitionsProcess, CapAcquisitionsCancel,
		CapOrdersView, CapOrdersCreate, CapOrdersEdit, CapOrdersSubmit,
		CapOrdersProcess, CapOrdersShip, CapOrdersDeliver, CapOrdersCancel,
		CapMaterialsView, CapMaterialsCreate, CapMaterialsEdit,
		CapMaterialsReserve, CapMaterialsConsume, CapMaterialsArchive,
		CapProductionView, CapProductionCreate, CapProductionEdit,
		CapProductionSchedule, CapProductionStart, CapProductionComplete,
		CapProductionCancel,
		CapClientsView, CapClientsCreate, CapClientsEdit, CapClientsDelete,
		CapSuppliersView, CapSuppliersCreate, CapSuppliersEdit, CapSuppliersDelete,
		CapTransportsView, CapTransportsCreate, CapTransportsEdit, CapTransportsDelete,
		CapUsersView, CapUsersCreate, CapUsersEdit, CapUsersDelete,
	}
}

// IsKnownCapability reports whether key belongs to the closed enumeration.
func IsKnownCapability(key Capability) bool {
	for _, c := range AllCapabilities() {
		if c == key {
			return true
		}
	}
	return false
}
