package api

import (
	"fmt"
	"net/http"
)

// snmpUnavailable backs POST /api/snmp/{start,stop}. The SNMP agent
// farm's ASN.1 codec is an external-collaborator boundary, not part of
// this engine; absent-feature endpoints return 400. GET
// /api/features/status carries no SNMP flag.
func snmpUnavailable(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, fmt.Errorf("api: snmp agent farm is not built into this engine"))
}
