// File: internal/options/policies.go
package options

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/frontier"
)

// Placeholder credentials typed by the Login option. Deliberately
// implausible so a stray submit never matches a real account.
const (
	probeEmail    = "explorer@example.com"
	probePassword = "wayward-probe-1"
)

var (
	paginationPattern = regexp.MustCompile(`(?i)\b(next|more|older|load more|show more|page \d+)\b|»|›`)
	filterSortPattern = regexp.MustCompile(`(?i)\b(filter|sort|refine)\b`)
	searchPattern     = regexp.MustCompile(`(?i)\b(search|query|find)\b`)
	emailUserPattern  = regexp.MustCompile(`(?i)\b(email|e-mail|user|username|login|account)\b`)
	numericSegment    = regexp.MustCompile(`^\d+$`)
)

// -- element helpers --

func isLink(e schemas.ElementDescriptor) bool {
	return e.Category() == schemas.CategoryLink || e.Href != ""
}

func isAnchor(e schemas.ElementDescriptor) bool {
	return strings.EqualFold(e.Tag, "a")
}

func isSearchInput(e schemas.ElementDescriptor) bool {
	if e.Category() != schemas.CategoryInput {
		return false
	}
	if strings.EqualFold(e.Type, "search") || strings.EqualFold(e.Role, "searchbox") {
		return true
	}
	return searchPattern.MatchString(e.Text)
}

func isFillable(e schemas.ElementDescriptor) bool {
	if e.Category() != schemas.CategoryInput && e.Category() != schemas.CategorySelect {
		return false
	}
	switch strings.ToLower(e.Type) {
	case "hidden", "submit", "button", "image", "reset", "checkbox", "radio", "file":
		return false
	}
	return true
}

func isSubmitControl(e schemas.ElementDescriptor) bool {
	t := strings.ToLower(e.Type)
	return t == "submit" || (e.Category() == schemas.CategoryButton && t != "reset")
}

func isPasswordInput(e schemas.ElementDescriptor) bool {
	return strings.EqualFold(e.Type, "password")
}

func isEmailOrUserInput(e schemas.ElementDescriptor) bool {
	if !isFillable(e) || isPasswordInput(e) {
		return false
	}
	if strings.EqualFold(e.Type, "email") {
		return true
	}
	return emailUserPattern.MatchString(e.Text)
}

// normalizedHref resolves and normalizes an element's href against the
// page URL, for visited-set membership checks.
func normalizedHref(state *schemas.CapturedState, e schemas.ElementDescriptor) string {
	if e.Href == "" {
		return ""
	}
	return frontier.NormalizeURL(state.ResolveHref(e.Href))
}

func clickProposal(option string, e schemas.ElementDescriptor) *schemas.ActionProposal {
	el := e
	return &schemas.ActionProposal{Kind: schemas.ActionClick, Target: &el, Option: option}
}

func typeProposal(option string, e schemas.ElementDescriptor, value string) *schemas.ActionProposal {
	el := e
	return &schemas.ActionProposal{Kind: schemas.ActionType, Target: &el, Value: value, Option: option}
}

// -- Navigation --

// NavigationOption clicks links, preferring ones whose resolved target
// the session has not visited yet.
type NavigationOption struct{}

func (o *NavigationOption) Name() string { return "navigation" }

func (o *NavigationOption) IsApplicable(state *schemas.CapturedState) bool {
	for _, e := range state.Elements {
		if isLink(e) {
			return true
		}
	}
	return false
}

func (o *NavigationOption) unvisitedLinks(state *schemas.CapturedState, ctx *Context) []schemas.ElementDescriptor {
	var out []schemas.ElementDescriptor
	for _, e := range state.Elements {
		if !isLink(e) {
			continue
		}
		if target := normalizedHref(state, e); target != "" && !ctx.IsVisited(target) {
			out = append(out, e)
		}
	}
	return out
}

func (o *NavigationOption) Score(state *schemas.CapturedState, ctx *Context) float64 {
	if len(o.unvisitedLinks(state, ctx)) > 0 {
		return 0.8
	}
	return 0.4
}

func (o *NavigationOption) Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal {
	if unvisited := o.unvisitedLinks(state, ctx); len(unvisited) > 0 {
		for _, e := range unvisited {
			if ctx.InteractionCount(e.Selector) == 0 {
				return clickProposal(o.Name(), e)
			}
		}
		return clickProposal(o.Name(), unvisited[0])
	}
	for _, e := range state.Elements {
		if isLink(e) {
			return clickProposal(o.Name(), e)
		}
	}
	return nil
}

// -- Search --

// SearchOption types an inferred query into a search-like input.
type SearchOption struct{}

func (o *SearchOption) Name() string { return "search" }

func (o *SearchOption) IsApplicable(state *schemas.CapturedState) bool {
	for _, e := range state.Elements {
		if isSearchInput(e) {
			return true
		}
	}
	return false
}

func (o *SearchOption) Score(state *schemas.CapturedState, ctx *Context) float64 {
	for _, e := range state.Elements {
		if isSearchInput(e) && ctx.InteractionCount(e.Selector) == 0 {
			return 0.6
		}
	}
	return 0.3
}

// inferQuery derives a plausible search term from the URL path or title.
func inferQuery(state *schemas.CapturedState) string {
	if u, err := url.Parse(state.URL); err == nil {
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := len(segs) - 1; i >= 0; i-- {
			seg := strings.TrimSpace(segs[i])
			// Skip numeric ids and file-ish segments.
			if seg != "" && !numericSegment.MatchString(seg) && !strings.Contains(seg, ".") {
				return strings.ReplaceAll(strings.ReplaceAll(seg, "-", " "), "_", " ")
			}
		}
	}
	if fields := strings.Fields(state.Title); len(fields) > 0 {
		return fields[0]
	}
	return "about"
}

func (o *SearchOption) Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal {
	for _, e := range state.Elements {
		if isSearchInput(e) {
			return typeProposal(o.Name(), e, inferQuery(state))
		}
	}
	return nil
}

// -- FormFill --

// FormFillOption types into the first fillable field of a form, or
// clicks its submit control once the fields are exhausted.
type FormFillOption struct{}

func (o *FormFillOption) Name() string { return "formfill" }

func (o *FormFillOption) formIndex(state *schemas.CapturedState) int {
	for i, e := range state.Elements {
		if e.Category() == schemas.CategoryForm {
			return i
		}
	}
	return -1
}

func (o *FormFillOption) IsApplicable(state *schemas.CapturedState) bool {
	return o.formIndex(state) >= 0
}

func (o *FormFillOption) Score(state *schemas.CapturedState, ctx *Context) float64 {
	idx := o.formIndex(state)
	if idx < 0 {
		return 0
	}
	for _, e := range state.Elements[idx+1:] {
		if isFillable(e) && ctx.InteractionCount(e.Selector) == 0 {
			return 0.65
		}
	}
	return 0.35
}

func (o *FormFillOption) Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal {
	idx := o.formIndex(state)
	if idx < 0 {
		return nil
	}
	// The element list is in document order; fields following the form
	// descriptor are treated as belonging to it.
	for _, e := range state.Elements[idx+1:] {
		if e.Category() == schemas.CategoryForm {
			break
		}
		if isFillable(e) && ctx.InteractionCount(e.Selector) == 0 {
			value := "wayward"
			if isEmailOrUserInput(e) {
				value = probeEmail
			}
			return typeProposal(o.Name(), e, value)
		}
	}
	for _, e := range state.Elements[idx+1:] {
		if isSubmitControl(e) {
			return clickProposal(o.Name(), e)
		}
	}
	return nil
}

// -- Pagination --

// PaginationOption clicks next/more/older style controls.
type PaginationOption struct{}

func (o *PaginationOption) Name() string { return "pagination" }

func (o *PaginationOption) find(state *schemas.CapturedState) *schemas.ElementDescriptor {
	for _, e := range state.Elements {
		if paginationPattern.MatchString(e.Text) {
			el := e
			return &el
		}
	}
	return nil
}

func (o *PaginationOption) IsApplicable(state *schemas.CapturedState) bool {
	return o.find(state) != nil
}

func (o *PaginationOption) Score(state *schemas.CapturedState, ctx *Context) float64 {
	if e := o.find(state); e != nil && ctx.InteractionCount(e.Selector) == 0 {
		return 0.7
	}
	return 0.3
}

func (o *PaginationOption) Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal {
	if e := o.find(state); e != nil {
		return clickProposal(o.Name(), *e)
	}
	return nil
}

// -- Scroll --

// ScrollOption scrolls down. Always applicable; lowest-priority fallback.
type ScrollOption struct{}

func (o *ScrollOption) Name() string { return "scroll" }

func (o *ScrollOption) IsApplicable(*schemas.CapturedState) bool { return true }

func (o *ScrollOption) Score(*schemas.CapturedState, *Context) float64 { return 0.1 }

func (o *ScrollOption) Propose(*schemas.CapturedState, *Context) *schemas.ActionProposal {
	return &schemas.ActionProposal{Kind: schemas.ActionScroll, Option: o.Name()}
}

// -- Login --

// LoginOption types a probe credential when an email/user-like and a
// password-like input coexist on the page.
type LoginOption struct{}

func (o *LoginOption) Name() string { return "login" }

func (o *LoginOption) fields(state *schemas.CapturedState) (user, pass *schemas.ElementDescriptor) {
	for i := range state.Elements {
		e := state.Elements[i]
		if user == nil && isEmailOrUserInput(e) {
			el := e
			user = &el
		}
		if pass == nil && isPasswordInput(e) {
			el := e
			pass = &el
		}
	}
	return user, pass
}

func (o *LoginOption) IsApplicable(state *schemas.CapturedState) bool {
	user, pass := o.fields(state)
	return user != nil && pass != nil
}

func (o *LoginOption) Score(state *schemas.CapturedState, ctx *Context) float64 {
	user, pass := o.fields(state)
	if user == nil || pass == nil {
		return 0
	}
	if ctx.InteractionCount(user.Selector) == 0 || ctx.InteractionCount(pass.Selector) == 0 {
		return 0.5
	}
	return 0.2
}

func (o *LoginOption) Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal {
	user, pass := o.fields(state)
	if user == nil || pass == nil {
		return nil
	}
	if ctx.InteractionCount(user.Selector) == 0 {
		return typeProposal(o.Name(), *user, probeEmail)
	}
	return typeProposal(o.Name(), *pass, probePassword)
}

// -- OpenInNewTab --

// OpenInNewTabOption clicks an anchor with a new-tab modifier, preferring
// anchors not yet touched on this page.
type OpenInNewTabOption struct{}

func (o *OpenInNewTabOption) Name() string { return "open-in-new-tab" }

func (o *OpenInNewTabOption) IsApplicable(state *schemas.CapturedState) bool {
	for _, e := range state.Elements {
		if isAnchor(e) {
			return true
		}
	}
	return false
}

func (o *OpenInNewTabOption) Score(state *schemas.CapturedState, ctx *Context) float64 {
	for _, e := range state.Elements {
		if isAnchor(e) && ctx.InteractionCount(e.Selector) == 0 {
			return 0.45
		}
	}
	return 0.25
}

func (o *OpenInNewTabOption) Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal {
	var fallback *schemas.ElementDescriptor
	for i := range state.Elements {
		e := state.Elements[i]
		if !isAnchor(e) {
			continue
		}
		if ctx.InteractionCount(e.Selector) == 0 {
			p := clickProposal(o.Name(), e)
			p.Modifier = schemas.ModifierNewTab
			return p
		}
		if fallback == nil {
			el := e
			fallback = &el
		}
	}
	if fallback != nil {
		p := clickProposal(o.Name(), *fallback)
		p.Modifier = schemas.ModifierNewTab
		return p
	}
	return nil
}

// -- FilterSort --

// FilterSortOption clicks filter/sort/refine-labelled controls.
type FilterSortOption struct{}

func (o *FilterSortOption) Name() string { return "filter-sort" }

func (o *FilterSortOption) find(state *schemas.CapturedState) *schemas.ElementDescriptor {
	for _, e := range state.Elements {
		if filterSortPattern.MatchString(e.Text) {
			el := e
			return &el
		}
	}
	return nil
}

func (o *FilterSortOption) IsApplicable(state *schemas.CapturedState) bool {
	return o.find(state) != nil
}

func (o *FilterSortOption) Score(state *schemas.CapturedState, ctx *Context) float64 {
	if e := o.find(state); e != nil && ctx.InteractionCount(e.Selector) == 0 {
		return 0.55
	}
	return 0.25
}

func (o *FilterSortOption) Propose(state *schemas.CapturedState, ctx *Context) *schemas.ActionProposal {
	if e := o.find(state); e != nil {
		return clickProposal(o.Name(), *e)
	}
	return nil
}
