package domain

// StatusActive is the only status the harvest asks the directory for.
const StatusActive = "Active"

// RoleQuery is the immutable input to one harvest run.
type RoleQuery struct {
	RoleCode string `json:"roleCode"`
	PageSize int    `json:"pageSize"`
	Status   string `json:"status"`
}

// NewRoleQuery builds a query for the active organisations of a role.
func NewRoleQuery(roleCode string, pageSize int) RoleQuery {
	return RoleQuery{RoleCode: roleCode, PageSize: pageSize, Status: StatusActive}
}

// HarvestRole names a role code together with the artifact it is exported to.
type HarvestRole struct {
	Code     string `json:"code"`
	Type     string `json:"type"`
	FileName string `json:"fileName"`
}

// DefaultRoles is the fixed set of roles harvested by a plain run.
var DefaultRoles = []HarvestRole{
	{Code: "RO182", Type: RoleType("RO182"), FileName: "leads_pharmacies_uk.csv"},
	{Code: "RO172", Type: RoleType("RO172"), FileName: "leads_clinics_uk.csv"},
}

// RoleType maps a primary role code to a short human label.
func RoleType(code string) string {
	switch code {
	case "RO182":
		return "Pharmacy"
	case "RO172":
		return "Clinic"
	case "RO197":
		return "Hospital"
	default:
		return "Other"
	}
}

// LeadFields is the fixed column order of an exported lead file.
var LeadFields = []string{"Name", "ODS_Code", "Status", "Address", "City", "Postcode", "Country", "Role"}

// LeadRecord is one flattened organisation row.
type LeadRecord struct {
	Name     string `json:"Name"`
	ODSCode  string `json:"ODS_Code"`
	Status   string `json:"Status"`
	Address  string `json:"Address"`
	City     string `json:"City"`
	Postcode string `json:"Postcode"`
	Country  string `json:"Country"`
	Role     string `json:"Role"`
}

// Row returns the record's values in LeadFields order.
func (l LeadRecord) Row() []string {
	return []string{l.Name, l.ODSCode, l.Status, l.Address, l.City, l.Postcode, l.Country, l.Role}
}

// LeadFromRow is the inverse of Row. Missing trailing values are left empty.
func LeadFromRow(row []string) LeadRecord {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return LeadRecord{
		Name:     get(0),
		ODSCode:  get(1),
		Status:   get(2),
		Address:  get(3),
		City:     get(4),
		Postcode: get(5),
		Country:  get(6),
		Role:     get(7),
	}
}
