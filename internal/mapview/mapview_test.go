package mapview

import (
	"bytes"
	"strings"
	"testing"

	"github.com/example/ride-assistant/internal/apperr"
	"github.com/example/ride-assistant/internal/logging"
	"github.com/example/ride-assistant/internal/models"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		platform models.Platform
		caps     Capabilities
		want     models.MapRenderState
	}{
		{models.PlatformWeb, Capabilities{}, models.RenderWebEmbed},
		{models.PlatformWeb, Capabilities{HasEmbeddableBrowser: true}, models.RenderWebEmbed},
		{models.PlatformIOS, Capabilities{HasEmbeddableBrowser: true}, models.RenderNativeEmbed},
		{models.PlatformAndroid, Capabilities{HasEmbeddableBrowser: true}, models.RenderNativeEmbed},
		{models.PlatformIOS, Capabilities{}, models.RenderPlaceholder},
		{models.PlatformAndroid, Capabilities{}, models.RenderPlaceholder},
	}
	for _, tc := range tests {
		if got := Select(tc.platform, tc.caps); got != tc.want {
			t.Errorf("Select(%s, %+v) = %s, want %s", tc.platform, tc.caps, got, tc.want)
		}
	}
}

func TestEmbedURLDirections(t *testing.T) {
	got := EmbedURL("KEY", "New York", "Boston")
	want := "https://www.google.com/maps/embed/v1/directions?key=KEY&origin=New%20York&destination=Boston&zoom=13"
	if got != want {
		t.Fatalf("EmbedURL = %s\nwant %s", got, want)
	}
}

func TestEmbedURLDefaultView(t *testing.T) {
	want := "https://www.google.com/maps/embed/v1/view?key=KEY&center=40.7128,-74.0060&zoom=10"
	for _, tc := range []struct{ o, d string }{{"", ""}, {"New York", ""}, {"", "Boston"}} {
		if got := EmbedURL("KEY", tc.o, tc.d); got != want {
			t.Errorf("EmbedURL(%q, %q) = %s", tc.o, tc.d, got)
		}
	}
}

func TestEncodeComponent(t *testing.T) {
	tests := map[string]string{
		"New York":              "New%20York",
		"Café & Bar, 5th Ave.":  "Caf%C3%A9%20%26%20Bar%2C%205th%20Ave.",
		"a+b=c/d?":              "a%2Bb%3Dc%2Fd%3F",
		"it's (really) *here*!": "it's%20(really)%20*here*!",
		"-_.~":                  "-_.~",
	}
	for in, want := range tests {
		if got := EncodeComponent(in); got != want {
			t.Errorf("EncodeComponent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderStrategies(t *testing.T) {
	web := Render(models.PlatformWeb, Capabilities{}, "New York", "Boston", "K")
	if web.State != models.RenderWebEmbed || web.Iframe == nil || web.WebView != nil {
		t.Fatalf("web view = %+v", web)
	}
	if web.Iframe.ReferrerPolicy != "no-referrer-when-downgrade" || web.Iframe.Loading != "lazy" || !web.Iframe.AllowFullscreen {
		t.Fatalf("iframe attrs = %+v", web.Iframe)
	}

	native := Render(models.PlatformIOS, Capabilities{HasEmbeddableBrowser: true}, "New York", "Boston", "K")
	if native.State != models.RenderNativeEmbed || native.WebView == nil || native.Iframe != nil {
		t.Fatalf("native view = %+v", native)
	}
	if native.URL != web.URL {
		t.Fatalf("native URL %s differs from web URL %s", native.URL, web.URL)
	}
	if !native.WebView.JavaScriptEnabled || !native.WebView.DOMStorageEnabled {
		t.Fatalf("webview attrs = %+v", native.WebView)
	}

	ph := Render(models.PlatformAndroid, Capabilities{}, "New York", "Boston", "K")
	if ph.State != models.RenderPlaceholder || ph.URL != "" {
		t.Fatalf("placeholder view = %+v", ph)
	}
	if !apperr.Is(ph.Fallback, apperr.KindRenderFallback) {
		t.Fatalf("fallback = %v", ph.Fallback)
	}
}

func TestRendererForResult(t *testing.T) {
	r := NewRenderer(models.PlatformWeb, Capabilities{}, "K", logging.Discard())
	if v := r.ForResult(nil); !strings.Contains(v.URL, "/view?") {
		t.Fatalf("nil result should render default view, got %s", v.URL)
	}
	res := &models.RideResult{RideDetails: models.RideDetails{StartAddress: "New York, NY, USA", EndAddress: "Boston, MA, USA"}}
	v := r.ForResult(res)
	if !strings.Contains(v.URL, "origin=New%20York%2C%20NY%2C%20USA") || !strings.Contains(v.URL, "destination=Boston%2C%20MA%2C%20USA") {
		t.Fatalf("unexpected URL %s", v.URL)
	}
}

func TestWritePage(t *testing.T) {
	var buf bytes.Buffer
	v := Render(models.PlatformWeb, Capabilities{}, "New York", "Boston", "K")
	if err := WritePage(&buf, Page{View: v}); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<iframe", "New%20York", "zoom=13", `loading="lazy"`, "allowfullscreen"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	ph := Render(models.PlatformIOS, Capabilities{}, "", "", "K")
	if err := WritePage(&buf, Page{View: ph}); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if strings.Contains(buf.String(), "<iframe") || !strings.Contains(buf.String(), "map-placeholder") {
		t.Fatalf("placeholder page = %s", buf.String())
	}
}
