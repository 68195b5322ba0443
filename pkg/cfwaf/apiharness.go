package cfwaf

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	rsZones       = regexp.MustCompile(`^/zones$`)
	rsRulesets    = regexp.MustCompile(`^/zones/([^/]+)/rulesets$`)
	rsRulesetByID = regexp.MustCompile(`^/zones/([^/]+)/rulesets/([^/]+)$`)
	rsRuleCreate  = regexp.MustCompile(`^/zones/([^/]+)/rulesets/([^/]+)/rules$`)
	rsRuleUpdate  = regexp.MustCompile(`^/zones/([^/]+)/rulesets/([^/]+)/rules/([^/]+)$`)
)

// APIHarness encapsulates http.Server and provides functions specific to the
// Cloudflare API test harness.
type APIHarness struct {
	Listener net.Listener
}

// Start opens a listener on the next available port on the local system
func (h *APIHarness) Start() (int, error) {
	var err error
	h.Listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}

	p := h.Listener.Addr().(*net.TCPAddr).Port
	fmt.Printf("Started test server on port: %v\n", p)
	go http.Serve(h.Listener, h)

	return p, nil
}

// Stop closes the listener
func (h *APIHarness) Stop() {
	// just closing the listener isn't very graceful, but it doesn't need to be,
	// it is accessed by only the tests, and Stop() is only invoked after tests
	// have completed.
	err := h.Listener.Close()

	if err != nil {
		fmt.Printf("Error stopping test server. %s\n", err)
	}

	fmt.Printf("Stopped test server\n")
}

func (h *APIHarness) ServeHTTP(w http.ResponseWriter, r *http.Request) {

	fmt.Printf("Test Server: received %s %s\n", r.Method, getFullPath(r.URL.Path, r.URL.RawQuery))
	switch {

	// Token verification
	case r.URL.Path == "/user/tokens/verify":
		writeEnvelope(w, json.RawMessage(`{"id":"test-token-id","status":"active"}`), true)

	// Zone listing
	case rsZones.MatchString(r.URL.Path):
		zs, err := loadHarnessFile("apitestdata/zones.json")
		if err != nil {
			returnError(w, r)
			return
		}

		var zones []json.RawMessage
		if err := json.Unmarshal(zs, &zones); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		// the SDK filters server-side via the name parameter
		if names, ok := r.URL.Query()["name"]; ok && names[0] != "" {
			wanted := strings.Split(names[0], ",")
			var kept []json.RawMessage
			for _, z := range zones {
				var zn struct {
					Name string `json:"name"`
				}
				if err := json.Unmarshal(z, &zn); err != nil {
					continue
				}
				for _, n := range wanted {
					if zn.Name == n {
						kept = append(kept, z)
						break
					}
				}
			}
			zones = kept
		}

		js, err := json.Marshal(zones)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, js, true)

	// Ruleset listing for a zone
	case rsRulesets.MatchString(r.URL.Path):
		res := rsRulesets.FindAllStringSubmatch(r.URL.Path, -1)
		zid := res[0][1]

		rp := "apitestdata/rulesets.json"
		if zid == "zone-nodefault" {
			rp = "apitestdata/rulesets_nodefault.json"
		}

		b, err := loadHarnessFile(rp)
		if err != nil {
			returnError(w, r)
			return
		}

		// substitute tokens
		js := strings.Replace(string(b), "{{zone-id}}", zid, -1)
		writeEnvelope(w, json.RawMessage(js), true)

	// Rule create
	case rsRuleCreate.MatchString(r.URL.Path) && r.Method == http.MethodPost:
		writeEnvelope(w, json.RawMessage(`{"id":"rule-new"}`), true)

	// Rule update
	case rsRuleUpdate.MatchString(r.URL.Path) && r.Method == http.MethodPatch:
		res := rsRuleUpdate.FindAllStringSubmatch(r.URL.Path, -1)
		writeEnvelope(w, json.RawMessage(`{"id":"`+res[0][3]+`"}`), true)

	// Ruleset detail with rules
	case rsRulesetByID.MatchString(r.URL.Path):
		res := rsRulesetByID.FindAllStringSubmatch(r.URL.Path, -1)
		zid := res[0][1]
		rsid := res[0][2]

		rules, err := loadHarnessFile("apitestdata/rules.json")
		if err != nil {
			returnError(w, r)
			return
		}

		detail := fmt.Sprintf(`{"id":"%s","name":"default","phase":"http_request_firewall_custom","kind":"zone","rules":%s}`, rsid, rules)

		// substitute tokens
		detail = strings.Replace(detail, "{{zone-id}}", zid, -1)
		writeEnvelope(w, json.RawMessage(detail), true)

	default:
		w.WriteHeader(http.StatusNotFound)
	}

}

// writeEnvelope wraps a result payload in the standard Cloudflare v4
// response envelope, including pagination metadata for list results.
func writeEnvelope(w http.ResponseWriter, result json.RawMessage, success bool) {
	count := 1
	var arr []json.RawMessage
	if json.Unmarshal(result, &arr) == nil {
		count = len(arr)
	}

	body := fmt.Sprintf(`{"success":%t,"errors":[],"messages":[],"result":%s,"result_info":{"page":1,"per_page":50,"count":%d,"total_count":%d,"total_pages":1}}`,
		success, result, count, count)

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "%s", body)
}

func loadHarnessFile(rp string) ([]byte, error) {
	b, err := os.ReadFile(rp)
	if err != nil {
		return nil, fmt.Errorf("error reading harness file. %s", err)
	}
	return b, nil
}

func getFullPath(p, q string) string {
	if len(q) == 0 {
		return p
	}
	return fmt.Sprintf("%s?%s", p, q)
}

func returnError(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusBadRequest)
}
