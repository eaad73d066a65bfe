package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachine_Zone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hostname string
		want     string
	}{
		{"universal-vm-0.zh1.farm.dfinity.systems", "zh1"},
		{"vm.fr1", "fr1"},
		{"nodots", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Machine{Hostname: tt.hostname}.Zone())
		})
	}
}

func TestSortByHostname(t *testing.T) {
	t.Parallel()
	machines := []Machine{
		{Name: "b", Hostname: "z3-2"},
		{Name: "a", Hostname: "z1-3"},
		{Name: "c", Hostname: "z2-1"},
	}

	SortByHostname(machines)

	var got []string
	for _, m := range machines {
		got = append(got, m.Hostname)
	}
	assert.Equal(t, []string{"z1-3", "z2-1", "z3-2"}, got)
}

func TestSortByHostname_TiesBrokenByName(t *testing.T) {
	t.Parallel()
	machines := []Machine{
		{Name: "vm-2", Hostname: "h"},
		{Name: "vm-1", Hostname: "h"},
	}

	SortByHostname(machines)

	assert.Equal(t, "vm-1", machines[0].Name)
}

func TestMissingZones(t *testing.T) {
	t.Parallel()
	machines := []Machine{
		{Name: "vm-0", Hostname: "vm-0.z1.example"},
		{Name: "vm-1", Hostname: "vm-1.z1.example"},
		{Name: "vm-2", Hostname: "vm-2.z2.example"},
	}

	assert.Equal(t, []string{"z3"}, MissingZones(machines, []string{"z3", "z2", "z1"}))
	assert.Empty(t, MissingZones(machines, []string{"z1", "z2"}))
}

func TestMachine_URL(t *testing.T) {
	t.Parallel()
	m6 := Machine{Address: "2001:db8::1"}
	m4 := Machine{Address: "10.0.0.1"}

	assert.Equal(t, "http://[2001:db8::1]/random", m6.URL(80, "/random"))
	assert.Equal(t, "http://[2001:db8::1]/random", m6.URL(0, "/random"))
	assert.Equal(t, "http://[2001:db8::1]:8080/SHA256SUMS", m6.URL(8080, "/SHA256SUMS"))
	assert.Equal(t, "http://10.0.0.1/random", m4.URL(80, "/random"))
}
