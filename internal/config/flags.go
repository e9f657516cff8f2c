package config

import (
	"flag"
	"fmt"
	"strings"
)

// Options are the command-line switches that are not part of Config
type Options struct {
	ConfigFile string
	Once       bool
	JSON       bool
	ReportDir  string
	Hours      int
}

// ParseFlags parses command-line flags and returns the effective Config.
// Values are layered: defaults, then the -config file, then flags that
// were set explicitly.
func ParseFlags(fs *flag.FlagSet, args []string) (Config, Options, error) {
	def := Default()
	var opts Options

	var (
		hosts          = fs.String("hosts", strings.Join(def.Hosts, ","), "Comma-separated hosts to probe")
		services       = fs.String("services", "", "Comma-separated services, e.g. tcp/22,udp/631")
		pingEnabled    = fs.Bool("ping", def.PingEnabled, "Ping each host before probing services")
		pingCount      = fs.Int("ping-count", def.PingCount, "Echo requests per ping")
		pingTimeout    = fs.Duration("ping-timeout", def.PingTimeout, "Network-layer reachability timeout")
		connectTimeout = fs.Duration("connect-timeout", def.ConnectTimeout, "Service connect timeout")
		udpTimeout     = fs.Duration("udp-timeout", def.UDPTimeout, "UDP reply timeout")
		parallelism    = fs.Int("parallelism", def.Parallelism, "Services probed concurrently per host")
		interval       = fs.Duration("interval", def.Interval, "Probe interval")
		dbPath         = fs.String("db", def.DatabasePath, "Database path")
		port           = fs.Int("port", def.Port, "Web server port")
		logLevel       = fs.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	)
	fs.StringVar(&opts.ConfigFile, "config", "", "Configuration file (.toml, .yaml or .yml)")
	fs.BoolVar(&opts.Once, "once", false, "Probe every host once, print the reports and exit")
	fs.BoolVar(&opts.JSON, "json", false, "Print -once reports as JSON")
	fs.StringVar(&opts.ReportDir, "report", "", "Generate a report from the database into this directory and exit")
	fs.IntVar(&opts.Hours, "hours", 24, "Hours of history covered by -report")

	if err := fs.Parse(args); err != nil {
		return Config{}, Options{}, err
	}

	cfg := def
	if opts.ConfigFile != "" {
		loaded, err := LoadFile(opts.ConfigFile)
		if err != nil {
			return Config{}, Options{}, err
		}
		cfg = loaded
	}

	var unknown error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hosts":
			cfg.Hosts = splitList(*hosts)
		case "services":
			cfg.Services = splitList(*services)
		case "ping":
			cfg.PingEnabled = *pingEnabled
		case "ping-count":
			cfg.PingCount = *pingCount
		case "ping-timeout":
			cfg.PingTimeout = *pingTimeout
		case "connect-timeout":
			cfg.ConnectTimeout = *connectTimeout
		case "udp-timeout":
			cfg.UDPTimeout = *udpTimeout
		case "parallelism":
			cfg.Parallelism = *parallelism
		case "interval":
			cfg.Interval = *interval
		case "db":
			cfg.DatabasePath = *dbPath
		case "port":
			cfg.Port = *port
		case "log-level":
			cfg.LogLevel = *logLevel
		case "config", "once", "json", "report", "hours":
		default:
			unknown = fmt.Errorf("unhandled flag %q", f.Name)
		}
	})
	if unknown != nil {
		return Config{}, Options{}, unknown
	}

	return cfg, opts, nil
}
