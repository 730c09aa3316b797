package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flexprice/ledger/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "seed-payment-method",
		Description: "Register a payment method for a payer in the ledger database",
		Run:         internal.SeedPaymentMethod,
	},
	{
		Name:        "test-kafka",
		Description: "Check that the configured kafka brokers are reachable",
		Run:         internal.TestKafkaConnection,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		methodID     string
		ownerID      string
		methodType   string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&methodID, "method-id", "", "Payment method ID")
	flag.StringVar(&ownerID, "owner-id", "", "Payer that owns the payment method")
	flag.StringVar(&methodType, "method-type", "card", "Payment method type")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	// Set command-specific environment variables
	if methodID != "" {
		os.Setenv("PAYMENT_METHOD_ID", methodID)
	}
	if ownerID != "" {
		os.Setenv("OWNER_ID", ownerID)
	}
	if methodType != "" {
		os.Setenv("METHOD_TYPE", methodType)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s", cmdName)
}
