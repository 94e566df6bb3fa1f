// Command lessonview serves a Pali course's lessons as interactive exercise
// tables.
package main

import (
	"fmt"
	"os"

	"github.com/livetemplate/lessonview/cmd/lessonview/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = commands.ServeCommand(args)
	case "validate":
		err = commands.ValidateCommand(args)
	case "version":
		fmt.Printf("lessonview version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("lessonview - Interactive Pali exercise tables")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lessonview serve [directory|file]   Start the course server")
	fmt.Println("  lessonview validate [directory|file] Check a lesson document")
	fmt.Println("  lessonview version                  Show version")
	fmt.Println("  lessonview help                     Show this help")
	fmt.Println()
	fmt.Println("Serve flags:")
	fmt.Println("  -p, --port <port>      Listen port (default 8080)")
	fmt.Println("      --host <host>      Listen host (default localhost)")
	fmt.Println("  -c, --config <file>    Configuration file (default ./lessonview.yaml)")
	fmt.Println("  -w, --watch            Reload lessons when the document changes")
	fmt.Println("      --no-watch         Disable reloading")
	fmt.Println("      --debug            Debug logging")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  lessonview serve                       # Serve ./lessons.json")
	fmt.Println("  lessonview serve course/lessons.yaml   # Serve a specific document")
	fmt.Println("  lessonview serve --port 3000 --watch   # Custom port with live reload")
	fmt.Println("  lessonview validate examples/          # Check examples/lessons.json")
}
