// Package mapview chooses how the route map is rendered on a host and
// builds the embed URL the rendering surface loads.
package mapview

import (
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/example/ride-assistant/internal/apperr"
	"github.com/example/ride-assistant/internal/logging"
	"github.com/example/ride-assistant/internal/models"
	"github.com/example/ride-assistant/internal/observability"
)

const (
	embedBase     = "https://www.google.com/maps/embed/v1"
	defaultCenter = "40.7128,-74.0060"
	directionZoom = "13"
	viewZoom      = "10"
)

// Capabilities describes what the host can render.
type Capabilities struct {
	HasEmbeddableBrowser bool `json:"has_embeddable_browser"`
}

// IframeAttrs are the attributes of the web iframe surface.
type IframeAttrs struct {
	Width           string `json:"width"`
	Height          string `json:"height"`
	Border          string `json:"border"`
	Loading         string `json:"loading"`
	AllowFullscreen bool   `json:"allow_fullscreen"`
	ReferrerPolicy  string `json:"referrer_policy"`
}

// WebViewAttrs are the settings of the native embeddable browser surface.
type WebViewAttrs struct {
	JavaScriptEnabled   bool `json:"javascript_enabled"`
	DOMStorageEnabled   bool `json:"dom_storage_enabled"`
	StartInLoadingState bool `json:"start_in_loading_state"`
	ScalesPageToFit     bool `json:"scales_page_to_fit"`
}

var (
	defaultIframe  = IframeAttrs{Width: "100%", Height: "100%", Border: "0", Loading: "lazy", AllowFullscreen: true, ReferrerPolicy: "no-referrer-when-downgrade"}
	defaultWebView = WebViewAttrs{JavaScriptEnabled: true, DOMStorageEnabled: true, StartInLoadingState: true, ScalesPageToFit: true}
)

// View is a rendered map surface. URL is empty for the placeholder.
type View struct {
	State   models.MapRenderState `json:"state"`
	URL     string                `json:"url,omitempty"`
	Iframe  *IframeAttrs          `json:"iframe,omitempty"`
	WebView *WebViewAttrs         `json:"webview,omitempty"`
	// Fallback explains a placeholder; it is never shown to the user.
	Fallback error `json:"-"`
}

// Select picks the rendering strategy for a host.
func Select(p models.Platform, caps Capabilities) models.MapRenderState {
	switch {
	case p == models.PlatformWeb:
		return models.RenderWebEmbed
	case caps.HasEmbeddableBrowser:
		return models.RenderNativeEmbed
	default:
		return models.RenderPlaceholder
	}
}

// EmbedURL builds a directions embed when both ends are known and a view
// centred on the default location otherwise.
func EmbedURL(apiKey, origin, destination string) string {
	if origin != "" && destination != "" {
		return embedBase + "/directions?key=" + apiKey +
			"&origin=" + EncodeComponent(origin) +
			"&destination=" + EncodeComponent(destination) +
			"&zoom=" + directionZoom
	}
	return embedBase + "/view?key=" + apiKey + "&center=" + defaultCenter + "&zoom=" + viewZoom
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s like a URI component: spaces become
// %20 and only A-Z a-z 0-9 - _ . ! ~ * ' ( ) are left as is.
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// Render is the pure strategy selection plus URL construction.
func Render(p models.Platform, caps Capabilities, origin, destination, apiKey string) View {
	switch Select(p, caps) {
	case models.RenderWebEmbed:
		attrs := defaultIframe
		return View{State: models.RenderWebEmbed, URL: EmbedURL(apiKey, origin, destination), Iframe: &attrs}
	case models.RenderNativeEmbed:
		attrs := defaultWebView
		return View{State: models.RenderNativeEmbed, URL: EmbedURL(apiKey, origin, destination), WebView: &attrs}
	default:
		return View{
			State:    models.RenderPlaceholder,
			Fallback: apperr.RenderFallback("embeddable browser unavailable on " + string(p)).WithOp("mapview.render"),
		}
	}
}

// Renderer renders for a fixed host and records which strategy was used.
// It is safe for concurrent use.
type Renderer struct {
	platform models.Platform
	caps     Capabilities
	apiKey   string
	logger   *slog.Logger
	warned   atomic.Bool
}

func NewRenderer(p models.Platform, caps Capabilities, apiKey string, logger *slog.Logger) *Renderer {
	return &Renderer{platform: p, caps: caps, apiKey: apiKey, logger: logging.Component(logger, "mapview")}
}

// Render builds the map view for the given route ends; either may be empty.
func (r *Renderer) Render(origin, destination string) View {
	v := Render(r.platform, r.caps, origin, destination, r.apiKey)
	observability.MapRenders.WithLabelValues(string(v.State)).Inc()
	if v.Fallback != nil && r.warned.CompareAndSwap(false, true) {
		r.logger.Warn("live map disabled, rendering placeholder", "error", v.Fallback)
	}
	return v
}

// ForResult renders the map for a ride result; nil renders the default view.
func (r *Renderer) ForResult(res *models.RideResult) View {
	if res == nil {
		return r.Render("", "")
	}
	return r.Render(res.RideDetails.StartAddress, res.RideDetails.EndAddress)
}
