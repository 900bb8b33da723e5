// Command print-registry dumps a node's persisted DNS registry
// (spec.md §3 Record) straight from its SQLite database file.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/httptim/rednet-core/internal/database"
	"github.com/httptim/rednet-core/internal/dnsname"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: print-registry path/to/rednet.db\n")
		os.Exit(2)
	}
	path := flag.Arg(0)

	db, err := database.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	recs, err := db.LoadRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load registry: %v\n", err)
		os.Exit(1)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Domain != recs[j].Domain {
			return recs[i].Domain < recs[j].Domain
		}
		return recs[i].OwnerID < recs[j].OwnerID
	})

	fmt.Printf("RECORDS: %d\n", len(recs))
	for _, rec := range recs {
		printRecord(rec)
	}
}

func printRecord(rec dnsname.Record) {
	if rec.Kind == dnsname.KindAlias {
		fmt.Printf("  %s owner=%d ALIAS -> %s registered=%s\n", rec.Domain, rec.OwnerID, rec.Target, rec.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"))
		return
	}
	fmt.Printf("  %s owner=%d COMPUTER registered=%s\n", rec.Domain, rec.OwnerID, rec.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"))
}
