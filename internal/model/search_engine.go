package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SearchEngine identifies a search engine that accepts sitemap pings.
type SearchEngine string

// Built-in search engines.
const (
	// SearchEngineGoogle is Google Search.
	SearchEngineGoogle SearchEngine = "google"
	// SearchEngineBing is Microsoft Bing.
	SearchEngineBing SearchEngine = "bing"
	// SearchEngineYandex is Yandex.
	SearchEngineYandex SearchEngine = "yandex"
)

// builtinPingEndpoints maps each built-in engine to its ping endpoint.
// The index URL is appended, query-escaped, to the endpoint.
var builtinPingEndpoints = map[SearchEngine]string{
	SearchEngineGoogle: "https://www.google.com/webmasters/tools/ping?sitemap=",
	SearchEngineBing:   "https://www.bing.com/ping?sitemap=",
	SearchEngineYandex: "http://webmaster.yandex.com/site/map.xml?host=",
}

// String returns the lowercase identifier of the engine.
func (e SearchEngine) String() string {
	return string(e)
}

// IsBuiltin returns true for engines whose endpoint is known without configuration.
func (e SearchEngine) IsBuiltin() bool {
	_, ok := builtinPingEndpoints[e]
	return ok
}

// PingEndpoint returns the built-in endpoint of the engine, or "" for custom engines.
func (e SearchEngine) PingEndpoint() string {
	return builtinPingEndpoints[e]
}

// DisplayName returns a human readable engine name.
func (e SearchEngine) DisplayName() string {
	return cases.Title(language.English).String(string(e))
}

// ParseSearchEngine normalises an engine identifier.
// Built-in names are matched case-insensitively; any other non-empty name
// is accepted as a custom engine whose endpoint comes from configuration.
func ParseSearchEngine(s string) (SearchEngine, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownSearchEngine)
	}
	return SearchEngine(name), nil
}

// BuiltinSearchEngines returns the engines known without configuration.
func BuiltinSearchEngines() []SearchEngine {
	return []SearchEngine{SearchEngineGoogle, SearchEngineBing, SearchEngineYandex}
}
