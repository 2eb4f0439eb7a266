package core

import "fmt"

const (
	MaintainerLink    = "https://github.com/aurakai/genesis/blob/main/MAINTAINERS.md"
	BugReportTemplate = "\n\n[NOTE]This is most likely a bug in genesis, please reach out to the maintainers at %s"
)

func BugReportMessage() string {
	return fmt.Sprintf(BugReportTemplate, MaintainerLink)
}

// EnvPrefix is the prefix of every genesis environment variable.
const EnvPrefix = "GENESIS"
