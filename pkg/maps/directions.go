package maps

import (
	"context"
	"net/url"
	"strings"
)

// Leg is one hop of an optimized route.
type Leg struct {
	DistanceMeters  int64 `json:"distanceMeters"`
	DurationSeconds int64 `json:"durationSeconds"`
}

// RouteResult is the sum-typed outcome of an optimize call. WaypointOrder
// indexes the submitted waypoints, excluding origin and destination.
type RouteResult struct {
	Success       bool   `json:"success"`
	WaypointOrder []int  `json:"waypointOrder,omitempty"`
	Legs          []Leg  `json:"legs,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func routeFailure(reason string) RouteResult {
	return RouteResult{Success: false, Reason: reason}
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		WaypointOrder *[]int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value int64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// OptimizeRoute asks the Directions API to reorder waypoints between origin
// and destination. It never returns an error.
func (c *Client) OptimizeRoute(ctx context.Context, origin, destination LatLng, waypoints []LatLng) RouteResult {
	if !c.configured() {
		return routeFailure(reasonNotConfigured)
	}
	if len(waypoints) == 0 {
		return routeFailure("at least one waypoint is required")
	}

	query := url.Values{
		"origin":      {origin.String()},
		"destination": {destination.String()},
		"waypoints":   {waypointParam(waypoints)},
	}

	var body directionsResponse
	if reason := c.getJSON(ctx, "directions", "directions/json", query, &body); reason != "" {
		return routeFailure("Route optimization failed: " + reason)
	}
	if body.Status != statusOK {
		reason := "Route optimization failed: " + body.Status
		if body.ErrorMessage != "" {
			reason += " (" + body.ErrorMessage + ")"
		}
		return routeFailure(reason)
	}
	if len(body.Routes) == 0 || body.Routes[0].WaypointOrder == nil {
		return routeFailure("Route optimization failed: no waypoint order returned")
	}

	route := body.Routes[0]
	legs := make([]Leg, 0, len(route.Legs))
	for _, leg := range route.Legs {
		legs = append(legs, Leg{DistanceMeters: leg.Distance.Value, DurationSeconds: leg.Duration.Value})
	}

	return RouteResult{
		Success:       true,
		WaypointOrder: append([]int(nil), (*route.WaypointOrder)...),
		Legs:          legs,
	}
}

func waypointParam(waypoints []LatLng) string {
	parts := make([]string, 0, len(waypoints)+1)
	parts = append(parts, "optimize:true")
	for _, wp := range waypoints {
		parts = append(parts, wp.String())
	}
	return strings.Join(parts, "|")
}

// DirectionsURL builds a shareable Google Maps link for a closed loop starting
// and ending at origin and visiting stops in order.
func DirectionsURL(origin LatLng, stops []LatLng) string {
	query := url.Values{
		"api":         {"1"},
		"origin":      {origin.String()},
		"destination": {origin.String()},
		"travelmode":  {"driving"},
	}
	if len(stops) > 0 {
		parts := make([]string, 0, len(stops))
		for _, stop := range stops {
			parts = append(parts, stop.String())
		}
		query.Set("waypoints", strings.Join(parts, "|"))
	}
	return "https://www.google.com/maps/dir/?" + query.Encode()
}
