package redaction

import (
	"fmt"

	"github.com/tolelom/redactchain/core"
)

func errRedactPermission(nodeID int) error {
	return fmt.Errorf("redaction: node %d lacks REDACT permission", nodeID)
}

func errPolicyInadmissible(nodeID int, typ core.RedactionType) error {
	return fmt.Errorf("redaction: no policy admits a %s request from node %d", typ, nodeID)
}

func errUnknownRedactionType(typ core.RedactionType) error {
	return fmt.Errorf("redaction: unknown redaction type %q", typ)
}
