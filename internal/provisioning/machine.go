package provisioning

import (
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Machine is a VM allocated by Farm. It is immutable once created.
type Machine struct {
	Name     string
	Hostname string
	Address  string
}

// Zone returns the datacenter encoded in the hostname: the second "."-separated label.
// It returns "" when the hostname carries no zone label.
func (m Machine) Zone() string {
	parts := strings.Split(m.Hostname, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// URL returns the http URL of path served by the machine on port.
// The default http port is left out.
func (m Machine) URL(port int, path string) string {
	host := m.Address
	if port != 0 && port != 80 {
		host = net.JoinHostPort(m.Address, strconv.Itoa(port))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	u := url.URL{Scheme: "http", Host: host, Path: path}
	return u.String()
}

// SortByHostname sorts machines by hostname ascending, in place.
// Ties are broken by name so the order is total.
func SortByHostname(machines []Machine) {
	sort.SliceStable(machines, func(i, j int) bool {
		if machines[i].Hostname != machines[j].Hostname {
			return machines[i].Hostname < machines[j].Hostname
		}
		return machines[i].Name < machines[j].Name
	})
}

// MissingZones returns the zones that no machine was placed in, sorted.
func MissingZones(machines []Machine, zones []string) []string {
	found := make(map[string]bool, len(machines))
	for _, m := range machines {
		found[m.Zone()] = true
	}
	var missing []string
	for _, z := range zones {
		if !found[z] {
			missing = append(missing, z)
		}
	}
	sort.Strings(missing)
	return missing
}
