// Package main is the entry point for the ableton2blackbox API server
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/padtools/ableton2blackbox/pkg/api"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	fmt.Printf("Starting ableton2blackbox API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, log.Sugar()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
