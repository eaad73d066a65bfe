// Package prerequisites checks that the local tools a run depends on are present.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH, or a path to an executable.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// VersionFlag, when set, is passed to the tool to report its version.
	// Tools without it are never executed by the check.
	VersionFlag string
}

// RunTools returns the tools a smoke test run needs locally.
// builder is the image builder executable configured for the run.
func RunTools(builder string) []Tool {
	return []Tool{
		{
			Name:        builder,
			Required:    true,
			Description: "Builds the VM config image from the generated config directory",
		},
	}
}

// OptionalTools returns tools that are useful but not required.
func OptionalTools() []Tool {
	return []Tool{
		{
			Name:        "ssh",
			Required:    false,
			Description: "Useful for logging into VMs of a kept run for debugging",
			VersionFlag: "-V",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.Description))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available and executable.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			if tool.VersionFlag != "" {
				result.Version = getToolVersion(path, tool.VersionFlag)
			}
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CheckRun checks the tools needed for a run with the given image builder.
func CheckRun(builder string) *CheckResults {
	required := RunTools(builder)
	optional := OptionalTools()
	all := make([]Tool, 0, len(required)+len(optional))
	all = append(all, required...)
	all = append(all, optional...)
	return Check(all)
}

// getToolVersion returns the first line the tool prints for flag.
// Returns empty string if version cannot be determined.
func getToolVersion(path, flag string) string {
	// #nosec G204 - path and flag come from trusted Tool definitions
	output, err := exec.Command(path, flag).CombinedOutput()
	if err != nil {
		return ""
	}
	lines := strings.Split(string(output), "\n")
	return strings.TrimSpace(lines[0])
}
