package cogniac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// EdgeFlow is a registered edge device belonging to the tenant. It is a
// handle into remote state; the fields reflect the listing response.
type EdgeFlow struct {
	client *Client

	Name            string `json:"name"`
	GatewayID       string `json:"gateway_id"`
	Description     string `json:"description,omitempty"`
	Model           string `json:"model,omitempty"`
	SoftwareVersion string `json:"software_version,omitempty"`
}

func (ef *EdgeFlow) String() string {
	return fmt.Sprintf("%s (%s)", ef.Name, ef.GatewayID)
}

// EdgeFlow returns the single EdgeFlow with the given gateway id.
// A missing gateway yields an error matching ErrNotFound.
func (c *Client) EdgeFlow(ctx context.Context, gatewayID string) (*EdgeFlow, error) {
	var ef EdgeFlow
	if err := c.get(ctx, "/1/gateways/"+url.PathEscape(gatewayID), nil, &ef); err != nil {
		return nil, fmt.Errorf("failed to fetch edgeflow %q: %w", gatewayID, err)
	}
	ef.client = c
	return &ef, nil
}

// edgeflowPage is one page of the tenant gateway listing.
type edgeflowPage struct {
	Data   []*EdgeFlow `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// EdgeFlows returns all EdgeFlows belonging to the tenant, following the
// pagination cursor until exhausted. An empty result is valid.
func (c *Client) EdgeFlows(ctx context.Context) ([]*EdgeFlow, error) {
	edgeflows := []*EdgeFlow{}

	next := "/1/tenants/" + url.PathEscape(c.tenantID) + "/gateways"
	for next != "" {
		var page edgeflowPage
		if err := c.get(ctx, next, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to list edgeflows: %w", err)
		}
		for _, ef := range page.Data {
			ef.client = c
			edgeflows = append(edgeflows, ef)
		}
		next = page.Paging.Next
	}

	return edgeflows, nil
}

// StatCounters are the detection counters of one aggregation bucket.
// Pixel counts are kept as json.Number: the service reports them as either
// integers or floats and report output echoes the wire value.
type StatCounters struct {
	ModelDetections       int64       `json:"model_detections"`
	AggregatedMediaPixels json.Number `json:"aggregated_media_pixels"`
	AggregatedGPUPixels   json.Number `json:"aggregated_gpu_pixels"`
}

// AggregatedStats is the aggregated detection record for one EdgeFlow over
// a time window. App is absent when no per-application data exists.
// StartTimestamp and EndTimestamp echo the window the service actually
// used, which may differ from the requested bounds.
type AggregatedStats struct {
	Total          StatCounters            `json:"total"`
	App            map[string]StatCounters `json:"app,omitempty"`
	StartTimestamp json.Number             `json:"start_timestamp"`
	EndTimestamp   json.Number             `json:"end_timestamp"`
}

// AggregatedStats fetches the aggregated detection statistics for the
// EdgeFlow. start and end bound the aggregation window in epoch seconds;
// nil means the service default (earliest available and now, respectively).
func (ef *EdgeFlow) AggregatedStats(ctx context.Context, start, end *float64) (*AggregatedStats, error) {
	query := url.Values{}
	if start != nil {
		query.Set("start_timestamp", strconv.FormatFloat(*start, 'f', -1, 64))
	}
	if end != nil {
		query.Set("end_timestamp", strconv.FormatFloat(*end, 'f', -1, 64))
	}

	var stats AggregatedStats
	err := ef.client.get(ctx, "/1/gateways/"+url.PathEscape(ef.GatewayID)+"/aggregated_stats", query, &stats)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aggregated stats for %q: %w", ef.GatewayID, err)
	}
	return &stats, nil
}

// Ping sends a ping event to the EdgeFlow. The device answers with a status
// message out of band; no response body is returned here.
func (ef *EdgeFlow) Ping(ctx context.Context) error {
	event := map[string]float64{"timestamp": float64(time.Now().UnixNano()) / 1e9}
	err := ef.client.post(ctx, "/1/gateways/"+url.PathEscape(ef.GatewayID)+"/event/ping", event, nil)
	if err != nil {
		return fmt.Errorf("failed to ping edgeflow %q: %w", ef.GatewayID, err)
	}
	return nil
}
