// Command fontscan lists the font families and styles the converter can
// see in a directory. Useful when a conversion aborts with "no loadable
// variants" and the family name in the document needs checking against
// what the font files actually declare.
//
// Usage:
//
//	go run cmd/fontscan/main.go <font-dir> [family]
package main

import (
	"fmt"
	"os"
	"strings"

	"rtl-converter/internal/fonts"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: fontscan <font-dir> [family]")
		fmt.Println()
		fmt.Println("Without a family, lists every family found under <font-dir>.")
		fmt.Println("With a family, lists its indexed styles and which conversion")
		fmt.Println("variants (Regular, Bold, Medium, SemiBold, Light) resolve.")
		os.Exit(1)
	}

	dir := os.Args[1]
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Printf("Error: directory not found: %s\n", dir)
		os.Exit(1)
	}

	catalog := fonts.NewDirCatalog([]string{dir})

	if len(os.Args) < 3 {
		families := catalog.Families()
		if len(families) == 0 {
			fmt.Printf("No parseable font files under %s\n", dir)
			os.Exit(2)
		}
		for _, name := range families {
			fmt.Printf("  %s  (%s)\n", name, strings.Join(catalog.Styles(name), ", "))
		}
		fmt.Printf("\n%d families\n", len(families))
		return
	}

	family := os.Args[2]
	styles := catalog.Styles(family)
	if len(styles) == 0 {
		fmt.Printf("Error: family not found: %s\n", family)
		fmt.Println("Run without a family argument to list what was found.")
		os.Exit(2)
	}

	fmt.Printf("Indexed styles of %s:\n", family)
	for _, style := range styles {
		fmt.Printf("  %s\n", style)
	}

	resolver := fonts.LoadVariants(catalog, family)
	if resolver.Empty() {
		fmt.Println("\nNone of the conversion variants resolve. A conversion with")
		fmt.Println("this family would abort.")
		os.Exit(2)
	}
	fmt.Printf("\nConversion variants: %s\n", strings.Join(resolver.Loaded(), ", "))
}
