package farm

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Image reference tags understood by Farm.
const (
	TagImageViaURL = "imageViaUrl"
	TagImageViaID  = "imageViaId"
)

// Response is the outcome of one Farm round-trip.
type Response struct {
	StatusCode int
	URL        string
	Body       []byte
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// DecodeJSON unmarshals the response body into out.
func (r *Response) DecodeJSON(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("parse response from %s: %w", r.URL, err)
	}
	return nil
}

// CreateGroupRequest is the body of POST /group/{name}.
type CreateGroupRequest struct {
	Spec GroupSpec `json:"spec"`
	// TTL is the group lifetime in seconds.
	TTL int64 `json:"ttl"`
}

// GroupSpec controls how Farm allocates VMs of a group.
type GroupSpec struct {
	VMAllocation string `json:"vmAllocation"`
}

// Group is an entry of GET /group.
type Group struct {
	Name      string `json:"name"`
	ExpiresAt string `json:"expiresAt"`
}

// ImageRef points Farm at a disk image, either by URL or by an uploaded file id.
type ImageRef struct {
	Tag    string `json:"_tag"`
	URL    string `json:"url,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
	ID     string `json:"id,omitempty"`
}

// ImageViaURL references an image downloaded by Farm and checked against sha256.
func ImageViaURL(url, sha256 string) ImageRef {
	return ImageRef{Tag: TagImageViaURL, URL: url, SHA256: sha256}
}

// ImageViaID references a file previously uploaded to the group.
func ImageViaID(id string) ImageRef {
	return ImageRef{Tag: TagImageViaID, ID: id}
}

// CreateVMRequest is the body of POST /group/{group}/vm/{vm}.
type CreateVMRequest struct {
	Type         string   `json:"type"`
	VCPUs        int      `json:"vCPUs"`
	MemoryKiB    int64    `json:"memoryKiB"`
	PrimaryImage ImageRef `json:"primaryImage"`
	HasIPv4      bool     `json:"hasIPv4"`
}

// VM is the relevant part of the create-VM response.
type VM struct {
	Hostname string `json:"hostname"`
	IPv6     string `json:"ipv6"`
}

// MountDrivesRequest is the body of PUT .../drive-templates/usb-storage.
type MountDrivesRequest struct {
	Drives []ImageRef `json:"drives"`
}

// UploadResponse is the body returned by POST /group/{name}/file.
type UploadResponse struct {
	FileIDs map[string]string `json:"fileIds"`
}

// ParseDataCenters returns the datacenter names of a GET /dc response, sorted.
// Farm returns an object keyed by datacenter name.
func ParseDataCenters(resp *Response) ([]string, error) {
	var dcs map[string]json.RawMessage
	if err := resp.DecodeJSON(&dcs); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(dcs))
	for name := range dcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ParseGroups decodes a GET /group response.
func ParseGroups(resp *Response) ([]Group, error) {
	var groups []Group
	if err := resp.DecodeJSON(&groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ParseVM decodes a create-VM response.
func ParseVM(resp *Response) (VM, error) {
	var vm VM
	if err := resp.DecodeJSON(&vm); err != nil {
		return VM{}, err
	}
	if vm.Hostname == "" || vm.IPv6 == "" {
		return VM{}, fmt.Errorf("incomplete VM in response from %s: hostname=%q ipv6=%q", resp.URL, vm.Hostname, vm.IPv6)
	}
	return vm, nil
}

// ParseFileID returns the id of the uploaded form field.
func ParseFileID(resp *Response, field string) (string, error) {
	var up UploadResponse
	if err := resp.DecodeJSON(&up); err != nil {
		return "", err
	}
	id, ok := up.FileIDs[field]
	if !ok || id == "" {
		return "", fmt.Errorf("no file id for field %q in response from %s", field, resp.URL)
	}
	return id, nil
}
