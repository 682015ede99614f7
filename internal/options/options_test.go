// File: internal/options/options_test.go
package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/frontier"
)

func linkEl(sel, text, href string) schemas.ElementDescriptor {
	return schemas.ElementDescriptor{Tag: "a", Text: text, Href: href, Selector: sel}
}

func inputEl(sel, typ, text string) schemas.ElementDescriptor {
	return schemas.ElementDescriptor{Tag: "input", Type: typ, Text: text, Selector: sel}
}

func emptyContext() *Context {
	return &Context{Visited: map[string]bool{}, Interacted: map[string]int{}}
}

func TestNavigationPrefersUnvisitedLinks(t *testing.T) {
	state := &schemas.CapturedState{
		URL: "https://example.com/",
		Elements: []schemas.ElementDescriptor{
			linkEl("#a1", "Visited", "/seen"),
			linkEl("#a2", "Fresh", "/fresh"),
		},
	}
	ctx := emptyContext()
	ctx.Visited[frontier.NormalizeURL("https://example.com/seen")] = true

	o := &NavigationOption{}
	require.True(t, o.IsApplicable(state))
	assert.Equal(t, 0.8, o.Score(state, ctx), "unvisited links available")

	p := o.Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, schemas.ActionClick, p.Kind)
	assert.Equal(t, "#a2", p.Target.Selector, "the unvisited link wins")
}

func TestNavigationFallsBackToAnyLink(t *testing.T) {
	state := &schemas.CapturedState{
		URL:      "https://example.com/",
		Elements: []schemas.ElementDescriptor{linkEl("#a1", "Seen", "/seen")},
	}
	ctx := emptyContext()
	ctx.Visited[frontier.NormalizeURL("https://example.com/seen")] = true

	o := &NavigationOption{}
	assert.Equal(t, 0.4, o.Score(state, ctx), "everything already visited")

	p := o.Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, "#a1", p.Target.Selector)
}

func TestSearchInfersQuery(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		title string
		want  string
	}{
		{"path segment", "https://example.com/winter-jackets/42", "ignored", "winter jackets"},
		{"numeric segments skipped", "https://example.com/2024/11/30", "Archive November", "Archive"},
		{"underscores flattened", "https://example.com/user_manual", "", "user manual"},
		{"title fallback on root", "https://example.com/", "Gadgets Galore", "Gadgets"},
		{"hardcoded last resort", "https://example.com/", "", "about"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := &schemas.CapturedState{
				URL:      tc.url,
				Title:    tc.title,
				Elements: []schemas.ElementDescriptor{inputEl("#q", "search", "")},
			}
			p := (&SearchOption{}).Propose(state, emptyContext())
			require.NotNil(t, p)
			assert.Equal(t, schemas.ActionType, p.Kind)
			assert.Equal(t, tc.want, p.Value)
		})
	}
}

func TestSearchApplicability(t *testing.T) {
	o := &SearchOption{}
	assert.False(t, o.IsApplicable(&schemas.CapturedState{
		Elements: []schemas.ElementDescriptor{inputEl("#name", "text", "Full name")},
	}))
	assert.True(t, o.IsApplicable(&schemas.CapturedState{
		Elements: []schemas.ElementDescriptor{inputEl("#q", "text", "Search the site")},
	}))
}

func TestFormFillWalksFieldsThenSubmits(t *testing.T) {
	state := &schemas.CapturedState{
		URL: "https://example.com/signup",
		Elements: []schemas.ElementDescriptor{
			{Tag: "form", Selector: "#signup"},
			inputEl("#email", "email", "Email address"),
			inputEl("#name", "text", "Full name"),
			{Tag: "button", Type: "submit", Text: "Sign up", Selector: "#submit"},
		},
	}
	o := &FormFillOption{}
	require.True(t, o.IsApplicable(state))

	// First call fills the email field with the probe address.
	ctx := emptyContext()
	p := o.Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, "#email", p.Target.Selector)
	assert.Equal(t, probeEmail, p.Value)

	// With email touched, the plain text field is next with filler text.
	ctx.Interacted["#email"] = 1
	p = o.Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, "#name", p.Target.Selector)
	assert.Equal(t, "wayward", p.Value)

	// All fields exhausted: click the submit control.
	ctx.Interacted["#name"] = 1
	p = o.Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, schemas.ActionClick, p.Kind)
	assert.Equal(t, "#submit", p.Target.Selector)
}

func TestPaginationMatching(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Next", true},
		{"Load more", true},
		{"Older posts", true},
		{"»", true},
		{"Page 3", true},
		{"Checkout", false},
		{"Contact us", false},
	}
	o := &PaginationOption{}
	for _, tc := range tests {
		state := &schemas.CapturedState{
			Elements: []schemas.ElementDescriptor{{Tag: "a", Text: tc.text, Selector: "#x"}},
		}
		assert.Equal(t, tc.want, o.IsApplicable(state), "text %q", tc.text)
	}
}

func TestScrollAlwaysApplicable(t *testing.T) {
	o := &ScrollOption{}
	assert.True(t, o.IsApplicable(&schemas.CapturedState{}))
	assert.Equal(t, 0.1, o.Score(nil, nil))

	p := o.Propose(nil, nil)
	require.NotNil(t, p)
	assert.Equal(t, schemas.ActionScroll, p.Kind)
	assert.Nil(t, p.Target)
}

func TestLoginTypesUserFieldFirst(t *testing.T) {
	state := &schemas.CapturedState{
		URL: "https://example.com/login",
		Elements: []schemas.ElementDescriptor{
			inputEl("#user", "email", "Email"),
			inputEl("#pass", "password", "Password"),
		},
	}
	o := &LoginOption{}
	require.True(t, o.IsApplicable(state))

	ctx := emptyContext()
	p := o.Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, "#user", p.Target.Selector)
	assert.Equal(t, probeEmail, p.Value)

	// Once the user field is filled, the password is next.
	ctx.Interacted["#user"] = 1
	p = o.Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, "#pass", p.Target.Selector)
	assert.Equal(t, probePassword, p.Value)
}

func TestLoginNeedsBothFields(t *testing.T) {
	o := &LoginOption{}
	assert.False(t, o.IsApplicable(&schemas.CapturedState{
		Elements: []schemas.ElementDescriptor{inputEl("#user", "email", "Email")},
	}))
	assert.False(t, o.IsApplicable(&schemas.CapturedState{
		Elements: []schemas.ElementDescriptor{inputEl("#pass", "password", "Password")},
	}))
}

func TestOpenInNewTabSetsModifier(t *testing.T) {
	state := &schemas.CapturedState{
		URL: "https://example.com/",
		Elements: []schemas.ElementDescriptor{
			linkEl("#a1", "Touched", "/a"),
			linkEl("#a2", "Untouched", "/b"),
		},
	}
	ctx := emptyContext()
	ctx.Interacted["#a1"] = 1

	p := (&OpenInNewTabOption{}).Propose(state, ctx)
	require.NotNil(t, p)
	assert.Equal(t, schemas.ModifierNewTab, p.Modifier)
	assert.Equal(t, "#a2", p.Target.Selector, "uninteracted anchors come first")
}

func TestFilterSortMatching(t *testing.T) {
	o := &FilterSortOption{}
	state := &schemas.CapturedState{
		Elements: []schemas.ElementDescriptor{
			{Tag: "button", Text: "Sort by price", Selector: "#sort"},
		},
	}
	require.True(t, o.IsApplicable(state))

	p := o.Propose(state, emptyContext())
	require.NotNil(t, p)
	assert.Equal(t, "#sort", p.Target.Selector)

	assert.False(t, o.IsApplicable(&schemas.CapturedState{
		Elements: []schemas.ElementDescriptor{{Tag: "button", Text: "Buy now", Selector: "#buy"}},
	}))
}

func TestDefaultOptionsOrder(t *testing.T) {
	names := make([]string, 0, 8)
	for _, o := range DefaultOptions() {
		names = append(names, o.Name())
	}
	// Registry order is load-bearing: the scheduler breaks ties by position.
	assert.Equal(t, []string{
		"navigation", "search", "formfill", "pagination",
		"scroll", "login", "open-in-new-tab", "filter-sort",
	}, names)
}
