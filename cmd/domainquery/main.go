// Command domainquery looks up a domain against a running rednet-core
// node's admin API, checking the live registry first and falling back
// to the resolution cache, the same two-tier lookup DNS Core itself
// performs (spec.md §4.3).
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/httptim/rednet-core/internal/api/models"
	"github.com/httptim/rednet-core/internal/dnsname"
)

func main() {
	var (
		addr    = flag.String("addr", "http://127.0.0.1:8080", "Admin API base URL")
		domain  = flag.String("domain", "", "Domain to query (required)")
		apiKey  = flag.String("api-key", "", "X-API-Key header value, if the node requires one")
		timeout = flag.Duration("timeout", 3*time.Second, "HTTP request timeout")
		quiet   = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	if strings.TrimSpace(*domain) == "" {
		fmt.Fprintln(os.Stderr, "domainquery: -domain is required")
		os.Exit(2)
	}
	if _, err := dnsname.Parse(*domain, 255); err != nil {
		fmt.Fprintf(os.Stderr, "domainquery: %v\n", err)
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}

	if rec, ok, err := findInRegistry(client, *addr, *apiKey, *domain); err != nil {
		fmt.Fprintf(os.Stderr, "domainquery: %v\n", err)
		os.Exit(1)
	} else if ok {
		if !*quiet {
			fmt.Printf("registry: %s -> owner=%d kind=%s target=%q registered_at=%s\n",
				rec.Domain, rec.OwnerID, rec.Kind, rec.Target, rec.RegisteredAt.Format(time.RFC3339))
		}
		return
	}

	if entry, ok, err := findInCache(client, *addr, *apiKey, *domain); err != nil {
		fmt.Fprintf(os.Stderr, "domainquery: %v\n", err)
		os.Exit(1)
	} else if ok {
		if !*quiet {
			fmt.Printf("cache: %s -> owner=%d kind=%s target=%q expires_at=%s\n",
				entry.Domain, entry.OwnerID, entry.Kind, entry.Target, entry.ExpiresAt.Format(time.RFC3339))
		}
		return
	}

	if !*quiet {
		fmt.Printf("%s: not found\n", *domain)
	}
	os.Exit(1)
}

func get(client *http.Client, addr, apiKey, path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(addr, "/")+path, nil)
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func findInRegistry(client *http.Client, addr, apiKey, domain string) (models.DNSRegistryEntry, bool, error) {
	var out models.DNSRegistryResponse
	if err := get(client, addr, apiKey, "/api/v1/dns/registry", &out); err != nil {
		return models.DNSRegistryEntry{}, false, err
	}
	for _, rec := range out.Records {
		if rec.Domain == domain {
			return rec, true, nil
		}
	}
	return models.DNSRegistryEntry{}, false, nil
}

func findInCache(client *http.Client, addr, apiKey, domain string) (models.DNSCacheEntry, bool, error) {
	var out models.DNSCacheResponse
	if err := get(client, addr, apiKey, "/api/v1/dns/cache", &out); err != nil {
		return models.DNSCacheEntry{}, false, err
	}
	for _, entry := range out.Entries {
		if entry.Domain == domain {
			return entry, true, nil
		}
	}
	return models.DNSCacheEntry{}, false, nil
}
