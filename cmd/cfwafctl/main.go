package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/user"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cfwaf/cfwafctl/pkg/cfwaf"
	cloudflare "github.com/cloudflare/cloudflare-go"
	"github.com/joho/godotenv"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	//Info level logging
	Info *log.Logger

	//Warning level logging
	Warning *log.Logger

	//Error level logging
	Error *log.Logger
)

func homeDir() string {
	user, err := user.Current()
	if err != nil {
		return os.Getenv("HOME")
	}
	return user.HomeDir
}

func main() {

	var (
		// version number
		version = "dev"
		date    = "unknown"
	)

	var (
		app         = kingpin.New("cfwafctl", "Cloudflare WAF Zone Rule Control Tool").Version(version)
		apiEndpoint = app.Flag("apiendpoint", "Cloudflare API endpoint to use.").Default("https://api.cloudflare.com/client/v4").String()
		apiToken    = app.Flag("apitoken", "API token to use. Falls back to CLOUDFLARE_API_TOKEN from the environment or the env file.").Envar("CLOUDFLARE_API_TOKEN").String()
		backup      = app.Flag("backup", "Store a copy of the fetched zone WAF rules locally.").Bool()
		backupPath  = app.Flag("backup-path", "Location for the zone WAF rules backup file.").Default(homeDir() + "/cfwafctl-backup.toml").String()
		configFile  = app.Flag("config", "Location of configuration file for cfwafctl.").Default(homeDir() + "/.cfwafctl.toml").String()
		envFile     = app.Flag("env-file", "Location of a key=value env file supplying CLOUDFLARE_API_TOKEN.").Default(".env").String()
		listRules   = app.Flag("list-rules", "List the default ruleset rules of each target zone and their status.").Bool()
		listZones   = app.Flag("list-zones", "List target zones and their default ruleset.").Bool()
		rules       = app.Flag("rules", "Which rule names to synchronize in a comma delimited fashion. Overwrites rules defined in config file.").String()
		rulesFile   = app.Flag("rules-file", "Location of the JSON file holding the desired-state rule definitions.").String()
		sync        = app.Flag("sync", "Synchronize the requested rules to every target zone.").Bool()
		zones       = app.Flag("zones", "Which zone names to target in a comma delimited fashion. Overwrites zones defined in config file. All visible zones when unset.").String()
	)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	fmt.Println("Cloudflare WAF Zone Rule Control Tool version: " + version + " built on " + date)

	//run init to get our logging configured
	config := Init(*configFile)

	config.APIEndpoint = *apiEndpoint

	//load the env file, a missing file is not an error
	if err := godotenv.Load(*envFile); err == nil {
		Info.Println("loaded env file: " + *envFile)
	}

	//resolve the token: flag/envvar first, then the env file contents
	token := *apiToken
	if token == "" {
		token = os.Getenv("CLOUDFLARE_API_TOKEN")
	}

	//if zones are passed via CLI parse them and replace config parameters
	if *zones != "" {
		Info.Println("using zones set by CLI:")
		config.Zones = nil
		for _, z := range strings.Split(*zones, ",") {
			Info.Println(" - zone name:", z)
			config.Zones = append(config.Zones, z)
		}
	}

	//if rule names are passed via CLI parse them and replace config parameters
	if *rules != "" {
		Info.Println("using rule names set by CLI:")
		config.Rules = nil
		for _, r := range strings.Split(*rules, ",") {
			Info.Println(" - rule name:", r)
			config.Rules = append(config.Rules, r)
		}
	}

	//if a rules file is passed via CLI it replaces the config parameter
	if *rulesFile != "" {
		config.RulesFile = *rulesFile
	}
	if config.RulesFile == "" {
		config.RulesFile = "waf_rules.json"
	}

	//create Cloudflare client
	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		Error.Fatal(err)
	}
	api.BaseURL = config.APIEndpoint

	client := cfwaf.NewClient(config.APIEndpoint, token)

	switch {

	//list target zones and their default ruleset
	case *listZones:
		Info.Println("Listing target zones")
		zl, err := cfwaf.GetZones(api, client, config.Zones)
		if err != nil {
			Error.Fatal(err)
		}
		for _, z := range zl {
			if z.DefaultRulesetID == "" {
				Info.Printf("- Zone %s (%s) has no default ruleset\n", z.Name, z.ID)
				continue
			}
			Info.Printf("- Zone %s (%s) default ruleset %s with %d rules\n", z.Name, z.ID, z.DefaultRulesetID, len(z.WAFRules))
		}
		Info.Println("Completed")
		os.Exit(0)

	//list the rules of each target zone
	case *listRules:
		Info.Println("Listing zone WAF rules")
		zl, err := cfwaf.GetZones(api, client, config.Zones)
		if err != nil {
			Error.Fatal(err)
		}
		cfwaf.ListZoneRules(zl)
		Info.Println("Completed")
		os.Exit(0)

	//back up zone WAF rules locally
	case *backup:
		Info.Println("Backing up zone WAF rules")
		zl, err := cfwaf.GetZones(api, client, config.Zones)
		if err != nil {
			Error.Fatal(err)
		}
		ib, err := cfwaf.BackupZones(zl, *backupPath)
		if err != nil {
			Error.Fatal(err)
		}
		Info.Printf("Backup of %d zones written to %s (%d bytes)\n", len(zl), *backupPath, ib)
		Info.Println("Completed")
		os.Exit(0)

	//synchronize the requested rules to every target zone
	case *sync:
		if len(config.Rules) == 0 {
			Error.Println("No rule names given, set --rules or the rules parameter in the config file")
			os.Exit(1)
		}

		if err := client.VerifyToken(); err != nil {
			Error.Fatal(err)
		}

		if err := cfwaf.SetZoneWAFRule(api, client, config.Rules, config.Zones, config.RulesFile); err != nil {
			Error.Fatal(err)
		}
		Info.Println("Completed")
		os.Exit(0)

	default:
		Error.Println("Nothing to do. Exiting")
		os.Exit(1)
	}

}

// Init function starts our logger
func Init(configFile string) cfwaf.TOMLConfig {

	//load configs, a missing file falls back to defaults
	var config cfwaf.TOMLConfig
	if _, err := os.Stat(configFile); err == nil {
		if _, err := toml.DecodeFile(configFile, &config); err != nil {
			fmt.Println("Could not read config file -", err)
			os.Exit(1)
		}
	}

	//assigned the right log path
	if config.Logpath == "" {
		config.Logpath = "cfwafctl.log"
	}

	//now lets create a logging object
	file, err := os.OpenFile(config.Logpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.Fatalln("Failed to open log file", config.Logpath, ":", err)
	}

	multi := io.MultiWriter(file, os.Stdout)

	Info = log.New(multi,
		"INFO: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Warning = log.New(multi,
		"WARNING: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Error = log.New(multi,
		"ERROR: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	cfwaf.Info = Info
	cfwaf.Warning = Warning
	cfwaf.Error = Error

	return config
}
