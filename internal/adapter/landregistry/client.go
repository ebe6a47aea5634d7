// Package landregistry reads HM Land Registry Price Paid Data from the
// linked-data SPARQL endpoint.
package landregistry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ishanyash/btr-propflip/internal/adapter/apiclient"
	"github.com/ishanyash/btr-propflip/internal/domain"
)

const (
	// Name identifies this source in logs, metrics, and data gaps.
	Name = "landregistry"

	// Rank orders this source ahead of the PPD snapshot on conflicts.
	Rank = 0

	DefaultBaseURL = "https://landregistry.data.gov.uk"

	standardCategory = "standardPricePaidTransaction"
)

var districtRe = regexp.MustCompile(`^[A-Z]{1,2}\d[A-Z\d]?$`)

// propertyTypes maps the lrcommon property type resource names.
var propertyTypes = map[string]domain.PropertyType{
	"detached":          domain.PropertyDetached,
	"semi-detached":     domain.PropertySemiDetached,
	"terraced":          domain.PropertyTerraced,
	"flat-maisonette":   domain.PropertyFlat,
	"otherPropertyType": domain.PropertyOther,
}

// Client implements domain.SaleSource against the Land Registry SPARQL API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Land Registry client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the source name.
func (c *Client) Name() string { return Name }

// SalesByPostcode returns every transaction recorded against a full postcode.
func (c *Client) SalesByPostcode(ctx context.Context, postcode string) ([]domain.SaleRecord, error) {
	pc, ok := domain.NormalizePostcode(postcode)
	if !ok {
		return nil, fmt.Errorf("land registry postcode %q: %w", postcode, domain.ErrNotFound)
	}
	return c.query(ctx, fmt.Sprintf(salesQuery, fmt.Sprintf(`?addr lrcommon:postcode %q .`, pc), ""))
}

// SalesByDistrict returns transactions in a postcode district from since onwards.
func (c *Client) SalesByDistrict(ctx context.Context, district string, since time.Time) ([]domain.SaleRecord, error) {
	district = strings.ToUpper(strings.TrimSpace(district))
	if !districtRe.MatchString(district) {
		return nil, fmt.Errorf("land registry district %q: %w", district, domain.ErrNotFound)
	}
	match := fmt.Sprintf(`?addr lrcommon:postcode ?postcode .
  FILTER(STRSTARTS(?postcode, %q))`, district+" ")
	filter := fmt.Sprintf(`FILTER(?date >= %q^^xsd:date)`, since.Format(time.DateOnly))
	return c.query(ctx, fmt.Sprintf(salesQuery, match, filter))
}

func (c *Client) query(ctx context.Context, sparql string) ([]domain.SaleRecord, error) {
	form := url.Values{"query": {sparql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/landregistry/query", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	var resp sparqlResponse
	if err := apiclient.DoJSON(c.httpClient, req, Name, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results.Bindings) == 0 {
		return nil, fmt.Errorf("land registry: no transactions: %w", domain.ErrNotFound)
	}

	// The live endpoint reflects every amendment published so far.
	fetched := domain.Now()
	sales := make([]domain.SaleRecord, 0, len(resp.Results.Bindings))
	for _, b := range resp.Results.Bindings {
		sale, ok := b.toSale()
		if !ok {
			continue
		}
		sale.PublishedAt = fetched
		sales = append(sales, sale)
	}
	return sales, nil
}

const salesQuery = `PREFIX lrppi: <http://landregistry.data.gov.uk/def/ppi/>
PREFIX lrcommon: <http://landregistry.data.gov.uk/def/common/>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
SELECT ?id ?amount ?date ?postcode ?paon ?saon ?street ?town ?propertyType ?estateType ?newBuild ?category
WHERE {
  ?tx lrppi:pricePaid ?amount ;
      lrppi:transactionDate ?date ;
      lrppi:transactionId ?id ;
      lrppi:propertyAddress ?addr .
  %s
  %s
  OPTIONAL { ?addr lrcommon:postcode ?postcode }
  OPTIONAL { ?addr lrcommon:paon ?paon }
  OPTIONAL { ?addr lrcommon:saon ?saon }
  OPTIONAL { ?addr lrcommon:street ?street }
  OPTIONAL { ?addr lrcommon:town ?town }
  OPTIONAL { ?tx lrppi:propertyType ?propertyType }
  OPTIONAL { ?tx lrppi:estateType ?estateType }
  OPTIONAL { ?tx lrppi:newBuild ?newBuild }
  OPTIONAL { ?tx lrppi:transactionCategory ?category }
}
ORDER BY ?date`

// SPARQL JSON results types.

type sparqlResponse struct {
	Results struct {
		Bindings []binding `json:"bindings"`
	} `json:"results"`
}

type binding map[string]struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (b binding) get(name string) string { return strings.TrimSpace(b[name].Value) }

func (b binding) toSale() (domain.SaleRecord, bool) {
	date, err := time.Parse(time.DateOnly, b.get("date"))
	if err != nil {
		return domain.SaleRecord{}, false
	}
	price, err := strconv.ParseFloat(b.get("amount"), 64)
	if err != nil || price <= 0 {
		return domain.SaleRecord{}, false
	}
	return domain.SaleRecord{
		TransactionID: strings.Trim(b.get("id"), "{}"),
		Date:          date,
		Price:         price,
		Postcode:      b.get("postcode"),
		PAON:          b.get("paon"),
		SAON:          b.get("saon"),
		Street:        b.get("street"),
		Town:          b.get("town"),
		PropertyType:  propertyTypes[path.Base(b.get("propertyType"))],
		Tenure:        domain.ParseTenure(path.Base(b.get("estateType"))),
		NewBuild:      b.get("newBuild") == "true",
		Verified:      path.Base(b.get("category")) == standardCategory,
		Source:        Name,
		SourceRank:    Rank,
	}, true
}
