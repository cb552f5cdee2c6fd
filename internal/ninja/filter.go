package ninja

import (
	"fmt"
	"strconv"
	"strings"
)

// validDeviceClasses enumerates the device classes the API accepts in a
// device filter.
var validDeviceClasses = map[string]bool{
	"WINDOWS_SERVER":               true,
	"WINDOWS_WORKSTATION":          true,
	"LINUX_WORKSTATION":            true,
	"MAC":                          true,
	"VMWARE_VM_HOST":               true,
	"VMWARE_VM_GUEST":              true,
	"LINUX_SERVER":                 true,
	"MAC_SERVER":                   true,
	"CLOUD_MONITOR_TARGET":         true,
	"NMS_SWITCH":                   true,
	"NMS_ROUTER":                   true,
	"NMS_FIREWALL":                 true,
	"NMS_PRIVATE_NETWORK_GATEWAY":  true,
	"NMS_PRINTER":                  true,
	"NMS_SCANNER":                  true,
	"NMS_DIAL_MANAGER":             true,
	"NMS_WAP":                      true,
	"NMS_IPSLA":                    true,
	"NMS_COMPUTER":                 true,
	"NMS_VM_HOST":                  true,
	"NMS_APPLIANCE":                true,
	"NMS_OTHER":                    true,
	"NMS_SERVER":                   true,
	"NMS_PHONE":                    true,
	"NMS_VIRTUAL_MACHINE":          true,
	"NMS_NETWORK_MANAGEMENT_AGENT": true,
}

// FilterBuilder assembles a NinjaRMM device filter string from individual
// criteria. The zero value is ready to use.
type FilterBuilder struct {
	clauses []string
}

// Organizations filters by organization ids. Exclude inverts the match.
func (b *FilterBuilder) Organizations(ids []int, exclude bool) *FilterBuilder {
	return b.idClause("org", ids, exclude)
}

// Locations filters by location ids. Exclude inverts the match.
func (b *FilterBuilder) Locations(ids []int, exclude bool) *FilterBuilder {
	return b.idClause("loc", ids, exclude)
}

// idClause renders single ids as field=1 / field!=1 and multiple ids as
// field in (1, 2) / field nin (1, 2), matching the API's filter grammar.
func (b *FilterBuilder) idClause(field string, ids []int, exclude bool) *FilterBuilder {
	if len(ids) == 0 {
		return b
	}

	if len(ids) == 1 {
		op := "="
		if exclude {
			op = "!="
		}
		b.clauses = append(b.clauses, fmt.Sprintf("%s%s%d", field, op, ids[0]))
		return b
	}

	op := "in"
	if exclude {
		op = "nin"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	b.clauses = append(b.clauses, fmt.Sprintf("%s %s (%s)", field, op, strings.Join(parts, ", ")))
	return b
}

// DeviceClasses filters by device class names. Unknown classes are rejected.
func (b *FilterBuilder) DeviceClasses(classes []string, exclude bool) (*FilterBuilder, error) {
	if len(classes) == 0 {
		return b, nil
	}

	normalized := make([]string, len(classes))
	for i, class := range classes {
		upper := strings.ToUpper(strings.TrimSpace(class))
		if !validDeviceClasses[upper] {
			return b, fmt.Errorf("invalid device class: %s", class)
		}
		normalized[i] = upper
	}

	if len(normalized) == 1 {
		op := "="
		if exclude {
			op = "!="
		}
		b.clauses = append(b.clauses, fmt.Sprintf("class%s%s", op, normalized[0]))
		return b, nil
	}

	op := "in"
	if exclude {
		op = "nin"
	}
	b.clauses = append(b.clauses, fmt.Sprintf("class %s (%s)", op, strings.Join(normalized, ", ")))
	return b, nil
}

// ApprovalStatus filters by device approval status (PENDING or APPROVED).
func (b *FilterBuilder) ApprovalStatus(status string) (*FilterBuilder, error) {
	if status == "" {
		return b, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(status))
	if upper != "PENDING" && upper != "APPROVED" {
		return b, fmt.Errorf("invalid approval status: %s", status)
	}
	b.clauses = append(b.clauses, "status="+upper)
	return b, nil
}

// Online filters by connectivity state.
func (b *FilterBuilder) Online(online bool) *FilterBuilder {
	if online {
		b.clauses = append(b.clauses, "online")
	} else {
		b.clauses = append(b.clauses, "offline")
	}
	return b
}

// String renders the combined filter, clauses joined by AND. Empty when no
// criteria were added.
func (b *FilterBuilder) String() string {
	return strings.Join(b.clauses, " AND ")
}
