package middleware

import (
	"net/http"
	"path"
	"regexp"
	"strings"
)

// Access is the outcome of classifying a request.
type Access int

const (
	AccessProtected Access = iota
	AccessPublic
)

func (a Access) String() string {
	if a == AccessPublic {
		return "public"
	}
	return "protected"
}

// Classification names the rule that produced an Access decision.
type Classification struct {
	Access Access
	Rule   string
}

// Public reports whether the request may skip authentication.
func (c Classification) Public() bool {
	return c.Access == AccessPublic
}

type pathRule struct {
	name   string
	value  string
	prefix bool
}

func (r pathRule) matches(p string) bool {
	if !r.prefix {
		return p == r.value
	}
	return p == r.value || strings.HasPrefix(p, r.value+"/")
}

var defaultPublicRules = []pathRule{
	{name: "actuator", value: "/actuator", prefix: true},
	{name: "auth", value: "/api/auth", prefix: true},
	{name: "public", value: "/public", prefix: true},
	{name: "api-docs", value: "/api/v3/api-docs", prefix: true},
	{name: "swagger-ui", value: "/api/swagger-ui", prefix: true},
	{name: "error", value: "/error"},
	{name: "swagger-ui", value: "/api/swagger-ui.html"},
	{name: "healthz", value: "/healthz"},
	{name: "readyz", value: "/readyz"},
	{name: "metrics", value: "/metrics"},
}

const postsRoot = "/api/posts"

var publicPostReads = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"posts.list", regexp.MustCompile(`^/api/posts$`)},
	{"posts.get", regexp.MustCompile(`^/api/posts/[0-9]+$`)},
	{"posts.comments", regexp.MustCompile(`^/api/posts/[0-9]+/comments$`)},
	{"posts.by-category", regexp.MustCompile(`^/api/posts/category/.+$`)},
	{"posts.by-type", regexp.MustCompile(`^/api/posts/type/.+$`)},
	{"posts.by-status", regexp.MustCompile(`^/api/posts/status/.+$`)},
}

// AccessClassifier decides which requests skip the auth gate. It holds no
// mutable state and is safe for concurrent use.
type AccessClassifier struct {
	rules []pathRule
}

// NewAccessClassifier builds the classifier with the built-in allowlist plus
// extra patterns. A pattern ending in "*" matches as a prefix, anything else exactly.
func NewAccessClassifier(extraPublic []string) *AccessClassifier {
	rules := make([]pathRule, 0, len(defaultPublicRules)+len(extraPublic))
	rules = append(rules, defaultPublicRules...)
	for _, raw := range extraPublic {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		rule := pathRule{name: "configured:" + raw}
		if strings.HasSuffix(raw, "*") {
			rule.prefix = true
			raw = strings.TrimSuffix(raw, "*")
		}
		rule.value = cleanPath(raw)
		if rule.prefix && rule.value == "/" {
			// "/*" opens everything; keep it as a plain prefix match on "".
			rule.value = ""
		}
		rules = append(rules, rule)
	}
	return &AccessClassifier{rules: rules}
}

// Classify applies the allowlist, then the posts read rules, then defaults to protected.
func (a *AccessClassifier) Classify(method, rawPath string) Classification {
	p := cleanPath(rawPath)

	for _, rule := range a.rules {
		if rule.matches(p) {
			return Classification{Access: AccessPublic, Rule: rule.name}
		}
	}

	if p == postsRoot || strings.HasPrefix(p, postsRoot+"/") {
		if method == http.MethodGet {
			for _, read := range publicPostReads {
				if read.pattern.MatchString(p) {
					return Classification{Access: AccessPublic, Rule: read.name}
				}
			}
		}
		return Classification{Access: AccessProtected, Rule: "posts"}
	}

	return Classification{Access: AccessProtected, Rule: "default"}
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
