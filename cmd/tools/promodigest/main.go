package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/noah-isme/webquote/internal/promo"
)

// promodigest prints the digest of each code given on the command line, ready
// to paste into PROMO_DIGESTS. Codes are never stored in clear.
func main() {
	pepper := flag.String("pepper", envOr("PROMO_PEPPER", promo.DefaultPepper), "pepper mixed into every digest")
	flag.Parse()

	codes := flag.Args()
	if len(codes) == 0 {
		fmt.Fprintln(os.Stderr, "usage: promodigest [-pepper P] CODE...")
		os.Exit(2)
	}
	digests := make([]string, 0, len(codes))
	for _, code := range codes {
		if promo.Normalize(code) == "" {
			continue
		}
		d := promo.Digest(code, *pepper)
		fmt.Printf("%s\t%s\n", promo.Normalize(code), d)
		digests = append(digests, d)
	}
	fmt.Printf("PROMO_DIGESTS=%s\n", strings.Join(digests, ","))
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
