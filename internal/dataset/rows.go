package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultEndpoint is the public Hugging Face datasets server.
const DefaultEndpoint = "https://datasets-server.huggingface.co"

// pageSize is the largest page the /rows endpoint serves.
const pageSize = 100

// Row is one dataset record; values are whatever JSON the server returned.
type Row map[string]any

// RowsClient pages through a dataset split on the datasets server.
type RowsClient struct {
	Endpoint string
	Client   *http.Client
}

func NewRowsClient(endpoint string) *RowsClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &RowsClient{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type splitsResponse struct {
	Splits []struct {
		Dataset string `json:"dataset"`
		Config  string `json:"config"`
		Split   string `json:"split"`
	} `json:"splits"`
}

type rowsResponse struct {
	Rows []struct {
		RowIdx int `json:"row_idx"`
		Row    Row `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// Config returns the first config of dataset that has the given split.
func (c *RowsClient) Config(ctx context.Context, dataset, split string) (string, error) {
	var resp splitsResponse
	if err := c.get(ctx, "/splits", url.Values{"dataset": {dataset}}, &resp); err != nil {
		return "", err
	}
	for _, s := range resp.Splits {
		if s.Split == split {
			return s.Config, nil
		}
	}
	return "", fmt.Errorf("dataset %s has no %q split", dataset, split)
}

// Rows fetches up to limit rows of dataset/split starting at row 0.
func (c *RowsClient) Rows(ctx context.Context, dataset, split string, limit int) ([]Row, error) {
	config, err := c.Config(ctx, dataset, split)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for offset := 0; offset < limit; offset += pageSize {
		length := min(pageSize, limit-offset)
		q := url.Values{
			"dataset": {dataset},
			"config":  {config},
			"split":   {split},
			"offset":  {strconv.Itoa(offset)},
			"length":  {strconv.Itoa(length)},
		}
		var resp rowsResponse
		if err := c.get(ctx, "/rows", q, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Rows {
			rows = append(rows, r.Row)
		}
		if len(resp.Rows) < length || offset+length >= resp.NumRowsTotal {
			break
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s returned no rows", dataset)
	}
	return rows, nil
}

func (c *RowsClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status code %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
