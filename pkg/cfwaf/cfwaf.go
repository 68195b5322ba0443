/*
Cloudflare WAF zone rule synchronization tool
*/

package cfwaf

import (
	"log"
	"os"
)

var (
	//Info level logging
	Info = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)

	//Warning level logging
	Warning = log.New(os.Stdout, "WARNING: ", log.Ldate|log.Ltime|log.Lshortfile)

	//Error level logging
	Error = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
)

// TOMLConfig is the applications config file
type TOMLConfig struct {
	Logpath     string
	APIEndpoint string
	EnvFile     string
	RulesFile   string
	Zones       []string
	Rules       []string
}
