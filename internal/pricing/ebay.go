// Package pricing provides market price sources for the ledger.
package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"tcg-inventory-api/internal/service"
)

const (
	defaultEbayBaseURL = "https://www.ebay.com"
	desktopUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// only the top results are relevant to the search term
	maxListings = 5
	maxBodySize = 4 << 20
)

var dollarPrice = regexp.MustCompile(`\$([\d,]+\.?\d*)`)

// EbayOracle scrapes eBay's completed sold listings for the most recent price.
type EbayOracle struct {
	client  *http.Client
	baseURL string
}

// NewEbayOracle creates an oracle bounded by timeout. An empty baseURL targets ebay.com.
func NewEbayOracle(baseURL string, timeout time.Duration) *EbayOracle {
	if baseURL == "" {
		baseURL = defaultEbayBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EbayOracle{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies the source.
func (o *EbayOracle) Name() string { return "ebay" }

// LookupLastSoldPrice returns the first sold price among the top listings.
// Network, status and parse failures are logged and reported as no price.
func (o *EbayOracle) LookupLastSoldPrice(ctx context.Context, cardName string) (decimal.Decimal, bool) {
	start := time.Now()
	price, ok, err := o.lookup(ctx, cardName)

	entry := log.WithFields(log.Fields{"card": cardName, "duration": time.Since(start)})
	if err != nil {
		entry.WithError(err).Warn("[EbayOracle] Lookup failed")
		return decimal.Zero, false
	}
	if !ok {
		entry.Info("[EbayOracle] No sold listing found")
		return decimal.Zero, false
	}

	entry.WithField("price", price.StringFixed(2)).Debug("[EbayOracle] Sold price found")
	return price, true
}

func (o *EbayOracle) lookup(ctx context.Context, cardName string) (decimal.Decimal, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.searchURL(cardName), nil)
	if err != nil {
		return decimal.Zero, false, err
	}
	req.Header.Set("User-Agent", desktopUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Zero, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, false, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	return parseSoldPrice(io.LimitReader(resp.Body, maxBodySize))
}

func (o *EbayOracle) searchURL(cardName string) string {
	q := url.Values{}
	q.Set("_nkw", cardName)
	q.Set("_sacat", "0")
	q.Set("LH_Sold", "1")
	q.Set("LH_Complete", "1")
	q.Set("rt", "nc")
	q.Set("LH_PrefLoc", "1")
	return o.baseURL + "/sch/i.html?" + q.Encode()
}

// parseSoldPrice walks the result page and returns the price of the first of the
// top listings that carries a dollar price and mentions "sold".
func parseSoldPrice(r io.Reader) (decimal.Decimal, bool, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse listing page: %w", err)
	}

	listings := findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "s-item__info")
	}, maxListings)

	for _, item := range listings {
		priceNode := findFirst(item, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "span" && hasClass(n, "s-item__price")
		})
		if priceNode == nil {
			continue
		}

		m := dollarPrice.FindStringSubmatch(textContent(priceNode))
		if m == nil {
			continue
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || !price.IsPositive() {
			continue
		}

		if strings.Contains(strings.ToLower(textContent(item)), "sold") {
			return price, true, nil
		}
	}
	return decimal.Zero, false, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// findAll collects up to limit matching nodes in document order without descending into matches.
func findAll(root *html.Node, match func(*html.Node) bool, limit int) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= limit {
			return
		}
		if match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if found := findAll(root, match, 1); len(found) > 0 {
		return found[0]
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

var _ service.PriceOracle = (*EbayOracle)(nil)
