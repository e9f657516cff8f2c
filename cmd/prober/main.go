package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"host-prober/internal/config"
	"host-prober/internal/database"
	"host-prober/internal/logging"
	"host-prober/internal/models"
	"host-prober/internal/monitor"
	"host-prober/internal/report"
	"host-prober/internal/web"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	// Parse configuration
	cfg, opts, err := config.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}
	logging.Configure(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	switch {
	case opts.Once:
		if err := runOnce(cfg, opts.JSON, os.Stdout); err != nil {
			log.Fatalf("Probe failed: %v", err)
		}
	case opts.ReportDir != "":
		if err := runReport(cfg, opts.ReportDir, opts.Hours); err != nil {
			log.Fatalf("Report failed: %v", err)
		}
	default:
		runMonitor(cfg)
	}
}

// runOnce probes every configured host a single time and prints the reports
func runOnce(cfg config.Config, asJSON bool, out io.Writer) error {
	probers, err := monitor.BuildProbers(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reports []models.Report
	var failed error
	for _, p := range probers {
		r, err := p.Probe(ctx)
		if err != nil {
			var pe *models.ProbeError
			if errors.As(err, &pe) {
				log.WithField("host", pe.Host).Errorf("Probe failed: %v", pe.Err)
			}
			failed = err
			continue
		}
		reports = append(reports, r)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printReport(out, r)
		}
	}

	return failed
}

func printReport(out io.Writer, r models.Report) {
	fmt.Fprintf(out, "%s (%s)\n", r.Host, r.Timestamp.Format("2006-01-02 15:04:05"))
	if r.Ping != nil {
		state := "unreachable"
		if r.Ping.Reachable {
			state = "reachable"
		}
		fmt.Fprintf(out, "  ping: %s\n", state)
	}
	for _, s := range r.SortedServices() {
		state := "down"
		if s.Reachable {
			state = "up"
		}
		fmt.Fprintf(out, "  %-10s %s\n", s.Key(), state)
	}
}

func runReport(cfg config.Config, dir string, hours int) error {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return err
	}

	_, err = report.NewGenerator(db.DB).GenerateReport(dir, hours)
	return err
}

func runMonitor(cfg config.Config) {
	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize schema
	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize components
	mon, err := monitor.New(cfg, db)
	if err != nil {
		log.Fatalf("Failed to create monitor: %v", err)
	}
	webServer := web.New(db, cfg.Port, staticFiles)
	webServer.EnableProbe(onDemandProbe(cfg), cfg.Hosts...)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := mon.Start(); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	go func() {
		if err := webServer.Start(); err != nil {
			log.Fatalf("Failed to start web server: %v", err)
		}
	}()

	log.Infof("Web interface available at http://localhost:%d", cfg.Port)

	<-sigChan
	log.Info("Shutting down...")
	mon.Stop()
	mon.Wait()
}

// onDemandProbe probes host with the configured services. The web server
// only calls it for configured hosts.
func onDemandProbe(cfg config.Config) web.ProbeFunc {
	return func(ctx context.Context, host string) (models.Report, error) {
		single := cfg
		single.Hosts = []string{host}
		probers, err := monitor.BuildProbers(single)
		if err != nil {
			return models.Report{}, err
		}
		return probers[0].Probe(ctx)
	}
}
