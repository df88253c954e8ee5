// Package main provides the entry point for the novel CLI.
//
// novel harvests serialized web novels by walking the next-chapter chain
// from a starting URL and appending each chapter to a single text file.
//
// Usage:
//
//	novel crawl <start-url>
//	novel history
//
// See --help for all available options.
package main

// main is the entry point for the harvester.
func main() {
	Execute()
}
