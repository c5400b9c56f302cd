package douyin

import (
	"context"
	"regexp"

	errs "sharefetch/pkg/errors"
	"sharefetch/pkg/resolver"
)

// awemeIDPattern matches the numeric content id in canonical post URLs
var awemeIDPattern = regexp.MustCompile(`(?:video|note|slides)/(\d+)`)

// LinkIDResolver derives the content id from a share URL. Short links
// only reveal the id after following their redirect, so resolution may
// hit the network.
type LinkIDResolver struct {
	resolver  *resolver.Resolver
	rawCookie string
}

// NewLinkIDResolver creates an IDResolver backed by the redirect
// resolver
func NewLinkIDResolver(res *resolver.Resolver, rawCookie string) *LinkIDResolver {
	return &LinkIDResolver{resolver: res, rawCookie: rawCookie}
}

// ResolveID extracts the numeric content id, resolving the URL through
// the redirector when the id is not visible in the URL itself.
func (l *LinkIDResolver) ResolveID(ctx context.Context, url string) (string, error) {
	if id := matchAwemeID(url); id != "" {
		return id, nil
	}

	link := l.resolver.Resolve(ctx, url, l.rawCookie)
	if link.Err != nil {
		return "", errs.New(errs.ErrorTypeNetwork, 0, "failed to resolve share link: %v", link.Err)
	}

	if id := matchAwemeID(link.Target()); id != "" {
		return id, nil
	}

	return "", errs.New(errs.ErrorTypeBadInput, link.StatusCode,
		"no content id in resolved URL %s", link.Target())
}

func matchAwemeID(url string) string {
	if m := awemeIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}
