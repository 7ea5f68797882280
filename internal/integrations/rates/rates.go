package rates

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/dkurilov/persona-service/internal/config"
	"github.com/sirupsen/logrus"
)

// Client fetches the published benchmark consumer APR used to judge whether
// a user's credit card rates are worth refinancing.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new benchmark rate client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.RatesURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// fetch downloads the raw XML rate feed.
func (c *Client) fetch() ([]byte, error) {
	req, err := http.NewRequest("GET", c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("rates XML response: %s", string(body))
	return body, nil
}

// parseXML extracts the credit card APR from the feed. The feed lists one
// <Rate> element per product; the card rate carries product="credit_card".
func (c *Client) parseXML(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	elements := doc.FindElements("//Rates/Rate[@product='credit_card']")
	if len(elements) == 0 {
		return 0, fmt.Errorf("no credit card rate found in XML")
	}

	var rate float64
	if _, err := fmt.Sscanf(elements[0].Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("failed to parse rate: %v", err)
	}
	return rate, nil
}

// BenchmarkAPR retrieves the current benchmark credit card APR.
func (c *Client) BenchmarkAPR() (float64, error) {
	body, err := c.fetch()
	if err != nil {
		return 0, err
	}

	rate, err := c.parseXML(body)
	if err != nil {
		return 0, err
	}

	c.log.Infof("Retrieved benchmark credit card APR: %.2f%%", rate)
	return rate, nil
}
