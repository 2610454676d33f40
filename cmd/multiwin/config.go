package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/multiwin/internal/config"
)

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  multiwin config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  multiwin config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/multiwin/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if _, err := cfg.MetadataJSON(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/multiwin/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			cfg, err = loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		if dir, err := cfg.MediumDir(); err == nil && cfg.Medium.Backend == config.BackendFile {
			fmt.Printf("# medium_dir: %s\n", dir)
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}
