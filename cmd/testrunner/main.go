package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"

	"github.com/spyice/room-generator/internal/config"
	"github.com/spyice/room-generator/test"
)

var errTelnetDisabled = errors.New("server.telnet_addr is empty; the telnet viewer is disabled")

func main() {
	configPath := flag.String("config", "data/roomgen.yaml", "Config file the server was started with")
	serverAddr := flag.String("addr", "", "Viewer telnet address (default: server.telnet_addr from -config)")
	run := flag.String("run", "", "Only run scenarios whose name matches this regexp")
	baseSeed := flag.Int64("seed", 0, "Offset added to every scenario seed")
	timeout := flag.Duration("timeout", test.DefaultMapTimeout, "Wait for one regenerated map")
	verbose := flag.Bool("v", false, "Verbose output - show detailed actions for each test")
	flag.Parse()

	addr, err := resolveAddr(*serverAddr, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testrunner: %v\n", err)
		os.Exit(2)
	}
	var filter *regexp.Regexp
	if *run != "" {
		if filter, err = regexp.Compile(*run); err != nil {
			fmt.Fprintf(os.Stderr, "testrunner: bad -run pattern: %v\n", err)
			os.Exit(2)
		}
	}

	test.Verbose = *verbose

	fmt.Printf("Running integration tests against %s (seed offset %d)\n", addr, *baseSeed)
	fmt.Println("Make sure roomgen -serve is running with telnet enabled!")
	fmt.Println()

	results := test.RunAllTests(test.Options{Addr: addr, BaseSeed: *baseSeed, MapTimeout: *timeout}, filter)
	if len(results) == 0 {
		fmt.Fprintf(os.Stderr, "testrunner: no scenario matches %q\n", *run)
		os.Exit(2)
	}
	test.PrintResults(results)

	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}

// resolveAddr prefers an explicit address and otherwise dials the telnet
// address from the server config, on localhost when it names no host.
func resolveAddr(addr, configPath string) (string, error) {
	if addr != "" {
		return addr, nil
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return "", err
	}
	if cfg.Server.TelnetAddr == "" {
		return "", errTelnetDisabled
	}
	host, port, err := net.SplitHostPort(cfg.Server.TelnetAddr)
	if err != nil {
		return "", fmt.Errorf("bad server.telnet_addr %q: %w", cfg.Server.TelnetAddr, err)
	}
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port), nil
}
