package domain

import (
	"strings"
	"time"
)

// PostType distinguishes a reported problem from an offered solution.
type PostType string

const (
	PostTypeProblem  PostType = "PROBLEM"
	PostTypeSolution PostType = "SOLUTION"
)

// PostStatus tracks the lifecycle of a post.
type PostStatus string

const (
	PostStatusOpen       PostStatus = "OPEN"
	PostStatusInProgress PostStatus = "IN_PROGRESS"
	PostStatusResolved   PostStatus = "RESOLVED"
	PostStatusClosed     PostStatus = "CLOSED"
)

// PostCategory groups posts for browsing by topic.
type PostCategory string

const PostCategoryGeneral PostCategory = "GENERAL"

var knownCategories = map[PostCategory]struct{}{
	"GENERAL":        {},
	"PLUMBING":       {},
	"ELECTRICAL":     {},
	"CARPENTRY":      {},
	"CLEANING":       {},
	"HOME_SERVICES":  {},
	"GROCERY":        {},
	"FOOD":           {},
	"HEALTHCARE":     {},
	"EDUCATION":      {},
	"TRANSPORTATION": {},
	"AUTOMOTIVE":     {},
	"ELECTRONICS":    {},
	"FASHION":        {},
	"OTHER":          {},
}

// ParsePostType returns the canonical post type and whether it is known.
func ParsePostType(raw string) (PostType, bool) {
	switch t := PostType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case PostTypeProblem, PostTypeSolution:
		return t, true
	default:
		return "", false
	}
}

// ParsePostStatus returns the canonical status and whether it is known.
func ParsePostStatus(raw string) (PostStatus, bool) {
	switch s := PostStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case PostStatusOpen, PostStatusInProgress, PostStatusResolved, PostStatusClosed:
		return s, true
	default:
		return "", false
	}
}

// ParsePostCategory returns the canonical category and whether it is known.
func ParsePostCategory(raw string) (PostCategory, bool) {
	c := PostCategory(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := knownCategories[c]
	return c, ok
}

// Post is a problem or offer published for a pincode.
type Post struct {
	ID                 int64
	UserID             int64
	Username           string
	Content            string
	ImageURL           string
	Type               PostType
	Status             PostStatus
	Category           PostCategory
	Pincode            string
	LikeCount          int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	SolutionProvidedAt *time.Time
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        int64
	PostID    int64
	UserID    int64
	Username  string
	Content   string
	CreatedAt time.Time
}

// PostFilter narrows post listings with simple equality filters.
type PostFilter struct {
	UserID   int64
	Category PostCategory
	Type     PostType
	Status   PostStatus
	Pincode  string
	Page     int
	Size     int
}

// Normalize clamps pagination to sane bounds.
func (f PostFilter) Normalize() PostFilter {
	page := PageRequest{Page: f.Page, Size: f.Size}.Normalize()
	f.Page, f.Size = page.Page, page.Size
	return f
}

// Offset returns the row offset for the filter's page.
func (f PostFilter) Offset() uint64 {
	return PageRequest{Page: f.Page, Size: f.Size}.Offset()
}

// BoardStats summarises totals for the admin dashboard.
type BoardStats struct {
	Users          int
	Customers      int
	BusinessOwners int
	Posts          int
	OpenPosts      int
	ResolvedPosts  int
	Comments       int
}
