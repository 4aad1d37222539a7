// Package main - Entry point for the carbontrace HTTP server
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"carbontrace/adapters/factors/hcl"
	"carbontrace/api"
)

const version = "1.0.0"

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	datasetDir := flag.String("dataset", "", "Directory of .hcl factor dataset overlays")
	flag.Parse()

	catalog, err := hcl.Load(*datasetDir)
	if err != nil {
		log.Fatal(err)
	}

	apiServer := api.NewServer(version, catalog)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))

	fmt.Printf("carbontrace server v%s\n", version)
	fmt.Printf("   API: http://localhost%s/api\n", *addr)
	fmt.Println()

	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}
