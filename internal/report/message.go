package report

import (
	"fmt"
	"strings"
)

// Links are the references embedded in an alert message.
type Links struct {
	// JobURL is the CI job log. Empty for manual runs.
	JobURL string
	// SourceURL is the base URL of the source browser, joined with CommitSHA.
	SourceURL string
	CommitSHA string
}

func (l Links) source() string {
	return strings.TrimSuffix(l.SourceURL, "/") + "/" + l.CommitSHA
}

// FormatMessage returns the Slack-formatted alert text for a failed run.
// kind is the error classification shown in front of the message.
func FormatMessage(kind string, err error, links Links) string {
	jobInfo := " during *manual* run"
	if links.JobURL != "" {
		jobInfo = fmt.Sprintf(". <%s|log>", links.JobURL)
	}
	return fmt.Sprintf(":smoking_pipe-1959: <%s|*Infra smoke test*> *failed* :x:%s.\nError: ```%s('%v')```",
		links.source(), jobInfo, kind, err)
}
