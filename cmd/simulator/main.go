package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"petzi-webhook/internal/simulator"
)

func main() {
	_ = godotenv.Load()

	secret := flag.String("secret", "", "shared signing secret (defaults to PETZI_SECRET)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <webhook-url>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	url := flag.Arg(0)

	if *secret == "" {
		*secret = os.Getenv("PETZI_SECRET")
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "No secret given: pass -secret or set PETZI_SECRET")
		os.Exit(2)
	}

	payload, err := simulator.BuildPayload()
	if err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		os.Exit(1)
	}

	sim := simulator.New(*secret)
	result, err := sim.Send(context.Background(), url, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		os.Exit(1)
	}

	if result.StatusCode == http.StatusOK {
		fmt.Printf("Request successful. Response: %s\n", result.Body)
	} else {
		fmt.Printf("Request failed with status code %d. Response: %s\n", result.StatusCode, result.Body)
		os.Exit(1)
	}
}
