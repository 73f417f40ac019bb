package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/uuss-seismo/slink2dali"
	"github.com/uuss-seismo/slink2dali/internal/lifecycle"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("slink2dali %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to the bridge's YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := slink2dali.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bridge := lifecycle.NewBridge()
	bridge.WatchSignals()
	return flow.Run(bridge.Context())
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := slink2dali.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func printUsage() {
	fmt.Print(`slink2dali: SEEDLink to DataLink bridge

Usage:
  slink2dali <command> [flags]

Commands:
  run        Start the bridge using the provided config
  validate   Load and validate a config file without starting the bridge

Examples:
  slink2dali run -config ./config.yaml
  slink2dali validate -config ./config.yaml
`)
}
