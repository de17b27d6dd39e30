package filesystem

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/sophialabs/wirecheck/internal/domain/contract"
	"github.com/sophialabs/wirecheck/internal/domain/match"
)

// routeHandlerNames are the file names Next.js accepts for a route handler.
var routeHandlerNames = []string{"route.ts", "route.js", "route.tsx", "route.jsx"}

// ProxyResolver maps /api/... endpoints to the same-origin route handlers the
// client app is expected to expose for them.
type ProxyResolver struct {
	appRoot     string
	displayBase string
	apiPrefix   string
	isIdent     match.Predicate
}

// NewProxyResolver creates a resolver over the app directory appRoot
// (e.g. <client>/app). isIdent decides which literal segments are IDs.
func NewProxyResolver(appRoot, displayBase, apiPrefix string, isIdent match.Predicate) *ProxyResolver {
	if isIdent == nil {
		isIdent = match.Never()
	}
	return &ProxyResolver{appRoot: appRoot, displayBase: displayBase, apiPrefix: apiPrefix, isIdent: isIdent}
}

// Applies reports whether endpoint lives under the API prefix.
func (r *ProxyResolver) Applies(endpoint string) bool {
	return match.HasPrefix(endpoint, r.apiPrefix)
}

// Resolve computes the expected route handler for endpoint and checks that it
// exists. It reports false for endpoints outside the API prefix.
func (r *ProxyResolver) Resolve(endpoint string) (contract.ProxyStatus, bool) {
	if !r.Applies(endpoint) {
		return contract.ProxyStatus{}, false
	}

	prefix := match.Segments(r.apiPrefix)
	segs := match.Segments(match.Normalize(endpoint, ""))

	dirs := append([]string{}, prefix...)
	lookup := make([]string, 0, len(segs)-len(prefix))
	for _, s := range segs[len(prefix):] {
		if strings.Contains(s, match.Placeholder) || r.isIdent(s) {
			dirs = append(dirs, "[id]")
			lookup = append(lookup, match.Placeholder)
			continue
		}
		dirs = append(dirs, s)
		lookup = append(lookup, s)
	}

	status := contract.ProxyStatus{
		Endpoint:          "/" + path.Join(dirs...),
		ExpectedRouteFile: displayPath(r.displayBase, filepath.Join(append([]string{r.appRoot}, append(dirs, routeHandlerNames[0])...)...)),
	}

	base := filepath.Join(append([]string{r.appRoot}, prefix...)...)
	if found, ok := findInAppTree(base, lookup, routeHandlerNames); ok {
		status.Exists = true
		status.ExpectedRouteFile = displayPath(r.displayBase, found)
	}
	return status, true
}
