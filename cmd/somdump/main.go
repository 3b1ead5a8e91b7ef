// Command somdump prints a human-readable summary of a SOM object file
// or library: its spaces and subspaces, (with -t) its symbol table, and
// (with -r) the decoded relocations for each subspace.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/appsworld/go-som"
)

var showRelocs = flag.Bool("r", false, "also print decoded relocations per subspace")
var showSymbols = flag.Bool("t", false, "also print the symbol table")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-r] [-t] file...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	for _, name := range flag.Args() {
		if err := dump(name); err != nil {
			log.Printf("%s: %v", name, err)
		}
	}
}

func dump(name string) error {
	if a, err := som.OpenArchive(name); err == nil {
		defer a.Close()
		fmt.Printf("%s: SOM library, %d member(s)\n", name, len(a.Members))
		for i, m := range a.Members {
			f, err := m.Open()
			if err != nil {
				log.Printf("%s: member %d: %v", name, i, err)
				continue
			}
			fmt.Printf("--- member %d (%d bytes) ---\n", i, m.Length)
			printFile(f)
		}
		return nil
	}

	f, err := som.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Printf("%s:\n", name)
	printFile(f)
	return nil
}

func printFile(f *som.File) {
	fmt.Print(f.String())
	if *showSymbols {
		fmt.Println("symbols:")
		for _, sym := range f.Symbols {
			if sym == nil || sym.Name == "" {
				continue
			}
			fmt.Printf("  %s\n", sym)
		}
	}
	if *showRelocs {
		for _, ss := range f.Subspaces {
			if len(ss.Relocations) == 0 {
				continue
			}
			fmt.Printf("relocations for %s:\n", ss.Name)
			for _, r := range ss.Relocations {
				sym := "-"
				if r.HasSymbol() {
					sym = r.Symbol.Name
				}
				fmt.Printf("  0x%08x %-20s sym=%s addend=%d\n", r.Offset, r.Kind, sym, r.Addend)
			}
		}
	}
}
